package catalog

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/pepmenu/storefront/session"
)

// ErrInvalidCoupon é retornado quando o código informado não é reconhecido
var ErrInvalidCoupon = errors.New("invalid coupon code")

// CouponRule descreve o desconto associado a um código
type CouponRule struct {
	Code        string
	Discount    decimal.Decimal
	Type        session.CouponType
	Description string
}

// CouponTable é a tabela fixa de cupons reconhecidos, indexada pelo código em minúsculas
type CouponTable map[string]CouponRule

// DefaultCoupons retorna os cupons aceitos pela loja
func DefaultCoupons() CouponTable {
	return CouponTable{
		"pep10": {
			Code:        "PEP10",
			Discount:    decimal.NewFromInt(10),
			Type:        session.CouponPercentage,
			Description: "10% de desconto",
		},
		"pep5": {
			Code:        "PEP5",
			Discount:    decimal.NewFromInt(5),
			Type:        session.CouponFixed,
			Description: "R$ 5,00 de desconto",
		},
		"desconto10": {
			Code:        "DESCONTO10",
			Discount:    decimal.NewFromInt(10),
			Type:        session.CouponPercentage,
			Description: "10% de desconto",
		},
	}
}

// Resolve valida o código digitado (sem diferenciar maiúsculas, ignorando espaços)
// e retorna o cupom pronto para ser aplicado.
func (t CouponTable) Resolve(input string) (session.Coupon, CouponRule, error) {
	code := strings.ToLower(strings.TrimSpace(input))
	rule, ok := t[code]
	if !ok || code == "" {
		return session.Coupon{}, CouponRule{}, ErrInvalidCoupon
	}
	return session.Coupon{
		Code:     strings.ToUpper(code),
		Discount: rule.Discount,
		Type:     rule.Type,
		IsValid:  true,
	}, rule, nil
}
