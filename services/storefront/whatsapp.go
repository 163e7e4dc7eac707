package main

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/pepmenu/storefront/session"
)

// orderMessage monta o texto enviado ao restaurante pelo WhatsApp
func orderMessage(order session.Order) string {
	var b strings.Builder
	b.WriteString("Olá! Fiz um pedido pelo cardápio online.\n\n")
	fmt.Fprintf(&b, "*Pedido:* %s\n", order.ID)
	fmt.Fprintf(&b, "*Total:* %s\n", session.FormatBRL(order.Total))
	fmt.Fprintf(&b, "*Cliente:* %s\n", order.Customer.Name)
	fmt.Fprintf(&b, "*Telefone:* %s\n", order.Customer.Phone)
	if order.Delivery.Type == session.DeliveryHome {
		fmt.Fprintf(&b, "*Endereço:* %s\n\n", order.Delivery.Address)
	} else {
		b.WriteString("*Retirada no local*\n\n")
	}
	b.WriteString("*Itens:*\n")
	for i, item := range order.Items {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "• %dx %s", item.Quantity, item.Name)
		if item.Observation != "" {
			fmt.Fprintf(&b, " (%s)", item.Observation)
		}
	}
	b.WriteString("\n\nObrigado!")
	return b.String()
}

// statusEnquiryMessage monta o texto usado para perguntar ao restaurante pelo andamento do pedido
func statusEnquiryMessage(order session.Order) string {
	return fmt.Sprintf(
		"Olá! Gostaria de saber o status do meu pedido.\n\n*Pedido:* %s\n*Cliente:* %s\n*Telefone:* %s\n\nObrigado!",
		order.ID, order.Customer.Name, order.Customer.Phone,
	)
}

// whatsAppLink retorna o link wa.me com a mensagem codificada, espaços como %20
func whatsAppLink(phone, message string) string {
	return "https://wa.me/" + phone + "?text=" + strings.ReplaceAll(url.QueryEscape(message), "+", "%20")
}
