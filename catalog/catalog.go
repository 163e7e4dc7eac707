// Package catalog carrega o cardápio estático da loja e oferece busca e cupons.
package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
	"gopkg.in/yaml.v3"

	"github.com/pepmenu/storefront/session"
)

//go:embed catalog.yaml
var defaultDocument []byte

// ErrProductNotFound é retornado quando o produto não existe no cardápio
var ErrProductNotFound = errors.New("product not found")

// Category representa uma seção do cardápio
type Category struct {
	ID   string `json:"id" yaml:"id"`
	Name string `json:"name" yaml:"name"`
}

// ScheduleItem representa o horário de funcionamento de um dia da semana
type ScheduleItem struct {
	Day   string `json:"day" yaml:"day"`
	Hours string `json:"hours" yaml:"hours"`
}

// Restaurant contém as informações exibidas na página da loja
type Restaurant struct {
	Name           string         `json:"name" yaml:"name"`
	Description    string         `json:"description" yaml:"description"`
	IsOpen         bool           `json:"is_open" yaml:"is_open"`
	OpenHours      string         `json:"open_hours" yaml:"open_hours"`
	Address        string         `json:"address" yaml:"address"`
	Phone          string         `json:"phone" yaml:"phone"`
	WeeklySchedule []ScheduleItem `json:"weekly_schedule,omitempty" yaml:"weekly_schedule"`
}

// Catalog é a lista somente leitura de produtos e categorias
type Catalog struct {
	Restaurant Restaurant
	categories []Category
	products   []session.Product
	byID       map[string]int
}

type document struct {
	Restaurant Restaurant `yaml:"restaurant"`
	Categories []Category `yaml:"categories"`
	Products   []struct {
		ID          string `yaml:"id"`
		Name        string `yaml:"name"`
		Description string `yaml:"description"`
		Price       string `yaml:"price"`
		Image       string `yaml:"image"`
		Category    string `yaml:"category"`
		Addons      []struct {
			Name  string `yaml:"name"`
			Price string `yaml:"price"`
		} `yaml:"addons"`
	} `yaml:"products"`
}

// Default retorna o cardápio embutido no binário
func Default() *Catalog {
	c, err := Parse(defaultDocument)
	if err != nil {
		panic(fmt.Sprintf("catalog: embedded document is invalid: %v", err))
	}
	return c
}

// LoadFile lê um cardápio em YAML do disco
func LoadFile(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog: %w", err)
	}
	defer f.Close()
	return Load(f)
}

// Load lê um cardápio em YAML
func Load(r io.Reader) (*Catalog, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}
	return Parse(raw)
}

// Parse valida e monta o cardápio a partir do documento YAML
func Parse(raw []byte) (*Catalog, error) {
	var doc document
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode catalog: %w", err)
	}

	categories := make(map[string]bool, len(doc.Categories))
	for _, cat := range doc.Categories {
		if cat.ID == "" {
			return nil, errors.New("category without id")
		}
		categories[cat.ID] = true
	}

	c := &Catalog{
		Restaurant: doc.Restaurant,
		categories: doc.Categories,
		products:   make([]session.Product, 0, len(doc.Products)),
		byID:       make(map[string]int, len(doc.Products)),
	}

	for _, p := range doc.Products {
		if p.ID == "" {
			return nil, errors.New("product without id")
		}
		if _, dup := c.byID[p.ID]; dup {
			return nil, fmt.Errorf("duplicated product id %q", p.ID)
		}
		if !categories[p.Category] {
			return nil, fmt.Errorf("product %q references unknown category %q", p.ID, p.Category)
		}
		price, err := parsePrice(p.Price)
		if err != nil {
			return nil, fmt.Errorf("product %q: %w", p.ID, err)
		}

		product := session.Product{
			ID:          p.ID,
			Name:        p.Name,
			Description: p.Description,
			Price:       price,
			Image:       p.Image,
			Category:    p.Category,
		}
		for _, a := range p.Addons {
			addonPrice, err := parsePrice(a.Price)
			if err != nil {
				return nil, fmt.Errorf("product %q addon %q: %w", p.ID, a.Name, err)
			}
			product.AddonOptions = append(product.AddonOptions, session.Addon{Name: a.Name, Price: addonPrice})
		}

		c.byID[p.ID] = len(c.products)
		c.products = append(c.products, product)
	}

	return c, nil
}

func parsePrice(s string) (decimal.Decimal, error) {
	price, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid price %q: %w", s, err)
	}
	if price.IsNegative() {
		return decimal.Zero, fmt.Errorf("negative price %q", s)
	}
	return price, nil
}

// Categories retorna as categorias na ordem do cardápio
func (c *Catalog) Categories() []Category {
	return append([]Category(nil), c.categories...)
}

// Products retorna todos os produtos na ordem do cardápio
func (c *Catalog) Products() []session.Product {
	return append([]session.Product(nil), c.products...)
}

// Product busca um produto pelo identificador
func (c *Catalog) Product(id string) (session.Product, error) {
	i, ok := c.byID[id]
	if !ok {
		return session.Product{}, fmt.Errorf("%w: %s", ErrProductNotFound, id)
	}
	return c.products[i], nil
}

// CategoryName retorna o nome de exibição da categoria, ou "" quando desconhecida
func (c *Catalog) CategoryName(id string) string {
	for _, cat := range c.categories {
		if cat.ID == id {
			return cat.Name
		}
	}
	return ""
}

// Search filtra o cardápio. Sem termo, retorna os produtos da categoria informada
// (ou todos, se category for vazia). Com termo, ignora a categoria e compara nome,
// descrição e nome da categoria sem diferenciar maiúsculas nem acentos.
func (c *Catalog) Search(term, category string) []session.Product {
	term = strings.TrimSpace(term)
	out := []session.Product{}
	if term == "" {
		for _, p := range c.products {
			if category == "" || p.Category == category {
				out = append(out, p)
			}
		}
		return out
	}

	needle := normalize(term)
	for _, p := range c.products {
		if strings.Contains(normalize(p.Name), needle) ||
			strings.Contains(normalize(p.Description), needle) ||
			strings.Contains(normalize(c.CategoryName(p.Category)), needle) {
			out = append(out, p)
		}
	}
	return out
}

// normalize remove acentos e converte para minúsculas ("Hambúrguer" -> "hamburguer")
func normalize(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return strings.ToLower(out)
}
