package session

import (
	"fmt"
	"strconv"
	"strings"
)

// DefaultOrderPrefix é usado quando o nome do restaurante não tem letras ASCII
const DefaultOrderPrefix = "PED"

// OrderCodePrefix deriva o prefixo de 3 letras maiúsculas dos códigos de pedido
// a partir do nome do restaurante ("Embu Grill" -> "EMB").
func OrderCodePrefix(restaurantName string) string {
	var b strings.Builder
	for _, r := range restaurantName {
		if (r >= 'A' && r <= 'Z') || (r >= 'a' && r <= 'z') {
			b.WriteRune(r)
			if b.Len() == 3 {
				break
			}
		}
	}
	if b.Len() == 0 {
		return DefaultOrderPrefix
	}
	return strings.ToUpper(b.String())
}

// NextOrderCode gera o próximo código sequencial para o prefixo: o maior sufixo
// numérico entre os códigos existentes com o mesmo prefixo, mais um, com 4 dígitos.
func NextOrderCode(prefix string, existing []string) string {
	max := 0
	for _, id := range existing {
		if !strings.HasPrefix(id, prefix) {
			continue
		}
		if n := orderSequence(id); n > max {
			max = n
		}
	}
	return fmt.Sprintf("%s%04d", prefix, max+1)
}

// orderSequence extrai o sufixo numérico de códigos no formato LETRAS+DÍGITOS; 0 caso contrário
func orderSequence(id string) int {
	i := 0
	for i < len(id) && id[i] >= 'A' && id[i] <= 'Z' {
		i++
	}
	if i == 0 || i == len(id) {
		return 0
	}
	digits := id[i:]
	for j := 0; j < len(digits); j++ {
		if digits[j] < '0' || digits[j] > '9' {
			return 0
		}
	}
	n, err := strconv.Atoi(digits)
	if err != nil {
		return 0
	}
	return n
}

// OrderIDs retorna os códigos dos pedidos do histórico
func (s State) OrderIDs() []string {
	ids := make([]string, len(s.Orders))
	for i, o := range s.Orders {
		ids[i] = o.ID
	}
	return ids
}
