package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/pepmenu/storefront/session"
)

func registerCommands(root *cobra.Command) {
	sessionCmd := &cobra.Command{Use: "session", Short: "Manage the shopping session"}
	sessionCmd.AddCommand(
		&cobra.Command{
			Use:   "new",
			Short: "Start a new session and print its id",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				ctx, cancel := commandContext(cmd)
				defer cancel()
				view, err := client.NewSession(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), view.SessionID)
				return nil
			},
		},
		&cobra.Command{
			Use:   "show",
			Short: "Show cart, checkout draft and totals",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				ctx, cancel := commandContext(cmd)
				defer cancel()
				view, err := client.Session(ctx)
				if err != nil {
					return err
				}
				printSession(cmd.OutOrStdout(), view)
				return nil
			},
		},
		&cobra.Command{
			Use:   "close",
			Short: "Close the session on the server",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				ctx, cancel := commandContext(cmd)
				defer cancel()
				return client.CloseSession(ctx)
			},
		},
	)

	var category string
	menuCmd := &cobra.Command{
		Use:   "menu [search]",
		Short: "List the menu, optionally filtered",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := commandContext(cmd)
			defer cancel()
			query := ""
			if len(args) == 1 {
				query = args[0]
			}
			menu, err := client.Menu(ctx, query, category)
			if err != nil {
				return err
			}
			printMenu(cmd.OutOrStdout(), menu)
			return nil
		},
	}
	menuCmd.Flags().StringVarP(&category, "category", "c", "", "Category id")

	root.AddCommand(sessionCmd, menuCmd, cartCommand(), couponCommand(), checkoutDraftCommands(), ordersCommand())
	root.AddCommand(&cobra.Command{
		Use:   "checkout",
		Short: "Place the order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := commandContext(cmd)
			defer cancel()
			order, err := client.Checkout(ctx)
			if err != nil {
				return err
			}
			printOrder(cmd.OutOrStdout(), order)
			return nil
		},
	})
}

func cartCommand() *cobra.Command {
	cartCmd := &cobra.Command{Use: "cart", Short: "Manage the cart"}

	var (
		quantity    int
		observation string
		addons      []string
	)
	addCmd := &cobra.Command{
		Use:   "add <product-id>",
		Short: "Add a product to the cart",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := commandContext(cmd)
			defer cancel()
			view, err := client.AddItem(ctx, args[0], quantity, observation, addons)
			if err != nil {
				return err
			}
			printSession(cmd.OutOrStdout(), view)
			return nil
		},
	}
	addCmd.Flags().IntVarP(&quantity, "qty", "q", 1, "Quantity")
	addCmd.Flags().StringVar(&observation, "obs", "", "Observation for the kitchen")
	addCmd.Flags().StringSliceVar(&addons, "addon", nil, "Addon name (repeatable)")

	cartCmd.AddCommand(
		addCmd,
		&cobra.Command{
			Use:   "update <product-id> <quantity>",
			Short: "Change the quantity of a product (0 removes it)",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				qty, err := strconv.Atoi(args[1])
				if err != nil {
					return fmt.Errorf("invalid quantity %q", args[1])
				}
				ctx, cancel := commandContext(cmd)
				defer cancel()
				view, err := client.UpdateItem(ctx, args[0], qty)
				if err != nil {
					return err
				}
				printSession(cmd.OutOrStdout(), view)
				return nil
			},
		},
		&cobra.Command{
			Use:   "remove <product-id>",
			Short: "Remove a product from the cart",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				ctx, cancel := commandContext(cmd)
				defer cancel()
				view, err := client.RemoveItem(ctx, args[0])
				if err != nil {
					return err
				}
				printSession(cmd.OutOrStdout(), view)
				return nil
			},
		},
		&cobra.Command{
			Use:   "clear",
			Short: "Empty the cart",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				ctx, cancel := commandContext(cmd)
				defer cancel()
				view, err := client.ClearCart(ctx)
				if err != nil {
					return err
				}
				printSession(cmd.OutOrStdout(), view)
				return nil
			},
		},
	)
	return cartCmd
}

func couponCommand() *cobra.Command {
	couponCmd := &cobra.Command{Use: "coupon", Short: "Apply or remove a discount coupon"}
	couponCmd.AddCommand(
		&cobra.Command{
			Use:   "apply <code>",
			Short: "Apply a coupon code",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				ctx, cancel := commandContext(cmd)
				defer cancel()
				view, message, err := client.ApplyCoupon(ctx, args[0])
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), message)
				printSession(cmd.OutOrStdout(), view)
				return nil
			},
		},
		&cobra.Command{
			Use:   "remove",
			Short: "Remove the applied coupon",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				ctx, cancel := commandContext(cmd)
				defer cancel()
				view, err := client.RemoveCoupon(ctx)
				if err != nil {
					return err
				}
				printSession(cmd.OutOrStdout(), view)
				return nil
			},
		},
	)
	return couponCmd
}

// checkoutDraftCommands agrupa cliente, entrega e pagamento sob "set"
func checkoutDraftCommands() *cobra.Command {
	setCmd := &cobra.Command{Use: "set", Short: "Fill in customer, delivery and payment"}

	var name, phone string
	customerCmd := &cobra.Command{
		Use:   "customer",
		Short: "Set customer name and phone",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := commandContext(cmd)
			defer cancel()
			view, err := client.SetCustomer(ctx, session.CustomerInfo{Name: name, Phone: phone})
			if err != nil {
				return err
			}
			printSession(cmd.OutOrStdout(), view)
			return nil
		},
	}
	customerCmd.Flags().StringVar(&name, "name", "", "Customer name")
	customerCmd.Flags().StringVar(&phone, "phone", "", "Customer phone")
	_ = customerCmd.MarkFlagRequired("name")
	_ = customerCmd.MarkFlagRequired("phone")

	var address, cep string
	deliveryCmd := &cobra.Command{
		Use:       "delivery <delivery|pickup>",
		Short:     "Choose home delivery or pickup",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{string(session.DeliveryHome), string(session.DeliveryPickup)},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := commandContext(cmd)
			defer cancel()
			view, err := client.SetDelivery(ctx, session.DeliveryInfo{
				Type:       session.DeliveryType(args[0]),
				Address:    address,
				PostalCode: cep,
			})
			if err != nil {
				return err
			}
			printSession(cmd.OutOrStdout(), view)
			return nil
		},
	}
	deliveryCmd.Flags().StringVar(&address, "address", "", "Street address")
	deliveryCmd.Flags().StringVar(&cep, "cep", "", "Postal code")

	paymentCmd := &cobra.Command{
		Use:       "payment <pix|credit|debit|meal_voucher>",
		Short:     "Choose the payment method",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"pix", "credit", "debit", "meal_voucher"},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := commandContext(cmd)
			defer cancel()
			view, err := client.SetPayment(ctx, session.PaymentMethod(args[0]))
			if err != nil {
				return err
			}
			printSession(cmd.OutOrStdout(), view)
			return nil
		},
	}

	setCmd.AddCommand(customerCmd, deliveryCmd, paymentCmd)
	return setCmd
}

func ordersCommand() *cobra.Command {
	ordersCmd := &cobra.Command{Use: "orders", Short: "Order history"}
	ordersCmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List the session's orders, newest first",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				ctx, cancel := commandContext(cmd)
				defer cancel()
				orders, err := client.Orders(ctx)
				if err != nil {
					return err
				}
				printOrders(cmd.OutOrStdout(), orders)
				return nil
			},
		},
		&cobra.Command{
			Use:   "show <order-id>",
			Short: "Show one order",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				ctx, cancel := commandContext(cmd)
				defer cancel()
				order, err := client.Order(ctx, args[0])
				if err != nil {
					return err
				}
				printOrder(cmd.OutOrStdout(), order)
				return nil
			},
		},
		&cobra.Command{
			Use:   "status <order-id> <status>",
			Short: "Advance an order's status (store management)",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				status := session.OrderStatus(args[1])
				if !status.Valid() {
					return fmt.Errorf("unknown status %q", args[1])
				}
				ctx, cancel := commandContext(cmd)
				defer cancel()
				if err := client.SetOrderStatus(ctx, args[0], status); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", args[0], status.Label())
				return nil
			},
		},
	)
	return ordersCmd
}

func printMenu(w io.Writer, menu Menu) {
	names := make(map[string]string, len(menu.Categories))
	for _, c := range menu.Categories {
		names[c.ID] = c.Name
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tPRODUTO\tCATEGORIA\tPREÇO")
	for _, p := range menu.Products {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", p.ID, p.Name, names[p.Category], session.FormatBRL(p.Price))
	}
	_ = tw.Flush()
}

func printSession(w io.Writer, view SessionView) {
	state := view.State
	if len(state.Cart) == 0 {
		fmt.Fprintln(w, "Carrinho vazio")
	} else {
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		for _, item := range state.Cart {
			desc := item.Name
			if len(item.SelectedAddons) > 0 {
				names := make([]string, len(item.SelectedAddons))
				for i, a := range item.SelectedAddons {
					names[i] = a.Name
				}
				desc += " + " + strings.Join(names, ", ")
			}
			if item.Observation != "" {
				desc += " (" + item.Observation + ")"
			}
			fmt.Fprintf(tw, "%dx\t%s\t%s\n", item.Quantity, desc, session.FormatBRL(item.LineTotal()))
		}
		_ = tw.Flush()
	}

	fmt.Fprintf(w, "Subtotal: %s\n", session.FormatBRL(view.Totals.Subtotal))
	if state.AppliedCoupon != nil {
		fmt.Fprintf(w, "Desconto (%s): -%s\n", state.AppliedCoupon.Code, session.FormatBRL(view.Totals.Discount))
	}
	if view.DeliveryFee.IsPositive() {
		fmt.Fprintf(w, "Entrega: %s\n", session.FormatBRL(view.DeliveryFee))
	}
	fmt.Fprintf(w, "Total: %s\n", session.FormatBRL(view.GrandTotal))

	if state.Customer != nil {
		fmt.Fprintf(w, "Cliente: %s (%s)\n", state.Customer.Name, state.Customer.Phone)
	}
	if state.Delivery != nil {
		if state.Delivery.Type == session.DeliveryHome {
			fmt.Fprintf(w, "Entrega: %s - CEP %s\n", state.Delivery.Address, state.Delivery.PostalCode)
		} else {
			fmt.Fprintln(w, "Retirada no local")
		}
	}
	if state.Payment != nil {
		fmt.Fprintf(w, "Pagamento: %s\n", state.Payment.Method)
	}
}

func printOrder(w io.Writer, order OrderView) {
	fmt.Fprintf(w, "%s - %s\n", order.Headline, order.ID)
	fmt.Fprintf(w, "Status: %s\n", order.StatusLabel)
	fmt.Fprintf(w, "Data: %s\n", order.Date.Local().Format("02/01/2006 15:04"))
	for _, item := range order.Items {
		fmt.Fprintf(w, "  %dx %s\n", item.Quantity, item.Name)
	}
	fmt.Fprintf(w, "Total: %s\n", session.FormatBRL(order.Total))
	if order.WhatsAppURL != "" {
		fmt.Fprintf(w, "WhatsApp: %s\n", order.WhatsAppURL)
	}
}

func printOrders(w io.Writer, orders []OrderView) {
	if len(orders) == 0 {
		fmt.Fprintln(w, "Nenhum pedido")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "PEDIDO\tDATA\tSTATUS\tTOTAL")
	for _, o := range orders {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", o.ID, o.Date.Local().Format("02/01/2006 15:04"), o.StatusLabel, session.FormatBRL(o.Total))
	}
	_ = tw.Flush()
}
