package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"golang.org/x/term"

	"github.com/AlibekovAA/shop-dash/backend/internal/common/config"
	storedomain "github.com/AlibekovAA/shop-dash/backend/internal/store/domain"
	userdomain "github.com/AlibekovAA/shop-dash/backend/internal/user/domain"
)

var ErrUnknownCommand = errors.New("unknown command")

// readPassword is replaced in tests so no terminal is touched.
var readPassword = term.ReadPassword

type Source interface {
	Summary(ctx context.Context) (storedomain.Summary, error)
	Orders(ctx context.Context) ([]storedomain.Order, error)
	Products(ctx context.Context) ([]storedomain.Product, error)
	Users(ctx context.Context) ([]userdomain.RegisteredUser, error)
}

const usage = `usage: dashboard [flags] <summary|orders|products|users>

flags:
`

// ParseArgs overlays command line flags on cfg and returns the command.
func ParseArgs(args []string, cfg config.DashboardConfig, stderr io.Writer) (config.DashboardConfig, string, error) {
	fs := flag.NewFlagSet("dashboard", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprint(stderr, usage)
		fs.PrintDefaults()
	}

	fs.StringVar(&cfg.BaseURL, "base-url", cfg.BaseURL, "admin backend base URL")
	fs.IntVar(&cfg.RetryAttempts, "retries", cfg.RetryAttempts, "attempts per request when the backend times out")
	fs.DurationVar(&cfg.RetryDelay, "retry-delay", cfg.RetryDelay, "delay between attempts")
	fs.DurationVar(&cfg.Timeout, "timeout", cfg.Timeout, "per-request timeout")

	if err := fs.Parse(args); err != nil {
		return cfg, "", err
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return cfg, "", ErrUnknownCommand
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return cfg, fs.Arg(0), nil
}

// PromptToken asks for the session token without echoing it.
func PromptToken(w io.Writer) (string, error) {
	fmt.Fprint(w, "Session token: ")
	raw, err := readPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(w)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(raw)), nil
}

// Run fetches what command names and prints it to w.
func Run(ctx context.Context, src Source, command string, w io.Writer) error {
	switch command {
	case "summary":
		sum, err := src.Summary(ctx)
		if err != nil {
			return err
		}
		printSummary(w, sum)
	case "orders":
		orders, err := src.Orders(ctx)
		if err != nil {
			return err
		}
		printOrders(w, orders)
	case "products":
		products, err := src.Products(ctx)
		if err != nil {
			return err
		}
		printProducts(w, products)
	case "users":
		users, err := src.Users(ctx)
		if err != nil {
			return err
		}
		printUsers(w, users)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownCommand, command)
	}
	return nil
}

func printSummary(w io.Writer, sum storedomain.Summary) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Products\t%d\n", sum.ProductsCount)
	fmt.Fprintf(tw, "Collections\t%d\n", sum.CollectionsCount)
	fmt.Fprintf(tw, "Orders\t%d\n", sum.OrdersCount)
	fmt.Fprintf(tw, "Fulfilled\t%d\n", sum.FulfilledOrders)
	fmt.Fprintf(tw, "Remaining\t%d\n", sum.RemainingOrders)
	if !sum.GeneratedAt.IsZero() {
		fmt.Fprintf(tw, "Generated\t%s\n", sum.GeneratedAt.Format(time.RFC3339))
	}
	_ = tw.Flush()
}

func printOrders(w io.Writer, orders []storedomain.Order) {
	if len(orders) == 0 {
		fmt.Fprintln(w, "no orders")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ORDER\tCREATED\tTOTAL\tPAYMENT\tFULFILLMENT\tITEMS")
	for _, o := range orders {
		fmt.Fprintf(tw, "%s\t%s\t%s %s\t%s\t%s\t%d\n",
			o.Name, o.CreatedAt.Format("2006-01-02"), o.TotalPrice, o.Currency,
			o.FinancialStatus, o.FulfillmentStatus, len(o.LineItems))
	}
	_ = tw.Flush()
}

func printProducts(w io.Writer, products []storedomain.Product) {
	if len(products) == 0 {
		fmt.Fprintln(w, "no products")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tHANDLE\tVARIANTS")
	for _, p := range products {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\n", p.ID, p.Title, p.Handle, len(p.Variants))
	}
	_ = tw.Flush()
}

func printUsers(w io.Writer, users []userdomain.RegisteredUser) {
	if len(users) == 0 {
		fmt.Fprintln(w, "no registered users")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tEMAIL\tPHONE\tREGISTERED")
	for _, u := range users {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			u.ID, u.FullName, u.Email, u.Phone, u.RegisteredAt.Format(time.RFC3339))
	}
	_ = tw.Flush()
}
