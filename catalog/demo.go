package catalog

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/pepmenu/storefront/session"
)

// DemoOrders monta o histórico de exemplo (um pedido por status), do mais recente
// para o mais antigo. Produtos ausentes do cardápio são ignorados.
func (c *Catalog) DemoOrders() []session.Order {
	line := func(id string, qty int, observation string) []session.CartItem {
		p, err := c.Product(id)
		if err != nil {
			return nil
		}
		return []session.CartItem{{Product: p, Quantity: qty, Observation: observation}}
	}
	join := func(parts ...[]session.CartItem) []session.CartItem {
		var out []session.CartItem
		for _, p := range parts {
			out = append(out, p...)
		}
		return out
	}
	at := func(s string) time.Time {
		t, _ := time.Parse(time.RFC3339, s)
		return t
	}
	home := func(address string) session.DeliveryInfo {
		return session.DeliveryInfo{Type: session.DeliveryHome, Address: address}
	}
	pickup := session.DeliveryInfo{Type: session.DeliveryPickup}

	return []session.Order{
		{
			ID: "EMB0007", Date: at("2025-09-25T19:10:00Z"), Total: decimal.RequireFromString("41.70"),
			Status:   session.OrderStatusPending,
			Items:    join(line("1", 1, "Sem picles"), line("4", 2, "")),
			Customer: session.CustomerInfo{Name: "Ana Paula", Phone: "(11) 91234-5678"},
			Delivery: home("Av. Central, 123 - Centro"),
			Payment:  session.PaymentInfo{Method: session.PaymentPix},
		},
		{
			ID: "EMB0006", Date: at("2025-09-25T18:50:00Z"), Total: decimal.RequireFromString("28.90"),
			Status:   session.OrderStatusConfirmed,
			Items:    line("5", 1, ""),
			Customer: session.CustomerInfo{Name: "Bruno Souza", Phone: "(11) 92345-6789"},
			Delivery: home("Rua das Flores, 456 - Jardim"),
			Payment:  session.PaymentInfo{Method: session.PaymentCredit},
		},
		{
			ID: "EMB0005", Date: at("2025-09-25T18:40:00Z"), Total: decimal.RequireFromString("69.80"),
			Status:   session.OrderStatusPreparing,
			Items:    line("2", 2, ""),
			Customer: session.CustomerInfo{Name: "Carlos Lima", Phone: "(11) 93456-7890"},
			Delivery: home("Rua B, 200 - Vila Nova"),
			Payment:  session.PaymentInfo{Method: session.PaymentDebit},
		},
		{
			ID: "EMB0004", Date: at("2025-09-25T18:20:00Z"), Total: decimal.RequireFromString("55.80"),
			Status:   session.OrderStatusOnRoute,
			Items:    join(line("1", 1, ""), line("4", 3, "")),
			Customer: session.CustomerInfo{Name: "Daniela Rocha", Phone: "(11) 94567-8901"},
			Delivery: home("Alameda Verde, 789 - Parque"),
			Payment:  session.PaymentInfo{Method: session.PaymentPix},
		},
		{
			ID: "EMB0003", Date: at("2025-09-25T18:00:00Z"), Total: decimal.RequireFromString("32.90"),
			Status:   session.OrderStatusReady,
			Items:    line("2", 1, ""),
			Customer: session.CustomerInfo{Name: "Eduarda N.", Phone: "(11) 95678-9012"},
			Delivery: pickup,
			Payment:  session.PaymentInfo{Method: session.PaymentMealVoucher},
		},
		{
			ID: "EMB0002", Date: at("2025-09-24T20:15:00Z"), Total: decimal.RequireFromString("53.80"),
			Status:   session.OrderStatusDelivered,
			Items:    join(line("1", 2, "Sem cebola"), line("4", 2, "")),
			Customer: session.CustomerInfo{Name: "João Silva", Phone: "(11) 99999-9999"},
			Delivery: home("Rua A, 123 - Bairro X"),
			Payment:  session.PaymentInfo{Method: session.PaymentPix},
		},
		{
			ID: "EMB0001", Date: at("2025-09-23T12:15:00Z"), Total: decimal.RequireFromString("32.90"),
			Status:   session.OrderStatusCanceled,
			Items:    line("2", 1, ""),
			Customer: session.CustomerInfo{Name: "Maria Santos", Phone: "(11) 88888-8888"},
			Delivery: pickup,
			Payment:  session.PaymentInfo{Method: session.PaymentCredit},
		},
	}
}
