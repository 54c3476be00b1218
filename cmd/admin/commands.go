package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"text/tabwriter"

	"shop-admin/internal/apiclient"
	"shop-admin/internal/auth"
	"shop-admin/internal/dashboard"
	"shop-admin/internal/filter"
	"shop-admin/internal/model"
	"shop-admin/internal/orderstatus"
	"shop-admin/internal/session"
	"shop-admin/internal/store"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

const usage = `usage: admin [-metrics] <command> [flags] [args]

commands:
  login -u USER [-p PASSWORD]        sign in (password falls back to ADMIN_PASSWORD)
  logout                             sign out and forget the stored token
  whoami                             show the signed-in operator
  dashboard                          product, category and order totals
  products [filters]                 list products
  product show|rm ID                 show or delete a product
  categories                         list categories
  category show|rm ID                show a category with its products, or delete it
  category add NAME                  create a category
  locations                          list store locations
  orders [-status S] [-page N]       list orders
  status list ORDER                  status history, newest first
  status add ORDER -status S -desc D append a status record
  status edit ORDER ID -status S -desc D
  status rm ORDER ID [-yes]          remove a status record

`

var errUsage = errors.New("invalid usage, run admin -h")

// cli holds the stores one invocation works with.
type cli struct {
	api        apiclient.Doer
	auth       *auth.Service
	products   *store.Products
	categories *store.Categories
	locations  *store.Locations
	orders     *store.Orders
	statuses   *orderstatus.Substore
	dashboard  *dashboard.Aggregator
	out        io.Writer
	in         *bufio.Reader
	getenv     func(string) string
	logger     zerolog.Logger
}

func newCLI(api apiclient.Doer, sessions session.Store, out io.Writer, in io.Reader, logger zerolog.Logger) *cli {
	orders := store.NewOrders(api, logger)
	return &cli{
		api:        api,
		auth:       auth.NewService(api, sessions, logger),
		products:   store.NewProducts(api, logger),
		categories: store.NewCategories(api, logger),
		locations:  store.NewLocations(api, logger),
		orders:     orders,
		statuses:   orderstatus.New(api, orders, logger),
		dashboard:  dashboard.NewFromAPI(api, logger),
		out:        out,
		in:         bufio.NewReader(in),
		getenv:     func(string) string { return "" },
		logger:     logger,
	}
}

func (c *cli) run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errUsage
	}
	cmd, rest := args[0], args[1:]
	switch cmd {
	case "login":
		return c.login(ctx, rest)
	case "logout":
		return c.logout(ctx)
	case "whoami":
		return c.whoami(ctx)
	case "dashboard":
		return c.showDashboard(ctx)
	case "products":
		return c.listProducts(ctx, rest)
	case "product":
		return c.product(ctx, rest)
	case "categories":
		return c.listCategories(ctx)
	case "category":
		return c.category(ctx, rest)
	case "locations":
		return c.listLocations(ctx)
	case "orders":
		return c.listOrders(ctx, rest)
	case "status":
		return c.status(ctx, rest)
	default:
		return fmt.Errorf("unknown command %q: %w", cmd, errUsage)
	}
}

func (c *cli) table() *tabwriter.Writer {
	return tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
}

func (c *cli) login(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("login", flag.ContinueOnError)
	username := fs.String("u", "", "username")
	password := fs.String("p", "", "password")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *password == "" {
		*password = c.getenv("ADMIN_PASSWORD")
	}

	user, err := c.auth.Login(ctx, *username, *password)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "Signed in as %s (%s)\n", user.Username, user.Role)
	return nil
}

func (c *cli) logout(ctx context.Context) error {
	if _, err := c.api.Do(ctx, apiclient.Request{Method: http.MethodPost, Path: "/api/auth/logout"}); err != nil {
		c.logger.Debug().Err(err).Msg("server logout failed")
	}
	if err := c.auth.Logout(); err != nil {
		return err
	}
	fmt.Fprintln(c.out, "Signed out")
	return nil
}

func (c *cli) whoami(ctx context.Context) error {
	user, err := c.auth.Restore(ctx)
	if errors.Is(err, session.ErrNoSession) {
		fmt.Fprintln(c.out, "Not signed in")
		return nil
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "%s <%s> %s\n", user.Username, user.Email, user.Role)
	return nil
}

func (c *cli) showDashboard(ctx context.Context) error {
	s := c.dashboard.Refresh(ctx)
	w := c.table()
	fmt.Fprintf(w, "Products\t%d\n", s.Products)
	fmt.Fprintf(w, "Categories\t%d\n", s.Categories)
	fmt.Fprintf(w, "Orders\t%d\n", s.Orders)
	return w.Flush()
}

func (c *cli) listProducts(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("products", flag.ContinueOnError)
	search := fs.String("search", "", "search term")
	category := fs.String("category", "", "category name or id")
	minPrice := fs.String("min", "", "minimum price")
	maxPrice := fs.String("max", "", "maximum price")
	sortBy := fs.String("sort", "", "sort column: price or name")
	order := fs.String("order", "", "asc or desc")
	page := fs.Int("page", 1, "page number")
	size := fs.Int("size", 10, "page size")
	if err := fs.Parse(args); err != nil {
		return err
	}

	initial := model.Filter{
		SearchTerm: *search,
		Category:   *category,
		SortBy:     *sortBy,
		SortOrder:  model.SortOrder(strings.ToLower(*order)),
		PageNumber: 1,
		PageSize:   *size,
	}
	var err error
	if initial.MinPrice, err = parsePrice("min", *minPrice); err != nil {
		return err
	}
	if initial.MaxPrice, err = parsePrice("max", *maxPrice); err != nil {
		return err
	}
	if err := initial.Validate(); err != nil {
		return err
	}

	if err := c.fetchPage(ctx, filter.ForStore(initial, c.products, c.logger), *page); err != nil {
		return err
	}

	st := c.products.Snapshot()
	w := c.table()
	fmt.Fprintln(w, "ID\tNAME\tCATEGORY\tPRICE")
	for _, p := range st.Items {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", p.ProductID, p.ProductName, p.CategoryName, p.Price.StringFixed(2))
	}
	fmt.Fprintf(w, "\nPage %d of %d, %d products\n", st.PageNumber, st.TotalPages, st.TotalCount)
	return w.Flush()
}

// fetchPage loads page 1 and then moves to page, clamped to the last page.
func (c *cli) fetchPage(ctx context.Context, ctl *filter.Controller, page int) error {
	if err := ctl.Refresh(ctx); err != nil {
		return err
	}
	if page > 1 {
		return ctl.SetPage(ctx, page)
	}
	return nil
}

func (c *cli) product(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return errUsage
	}
	id, err := parseID("product", args[1])
	if err != nil {
		return err
	}
	switch args[0] {
	case "show":
		p, err := c.products.Get(ctx, id)
		if err != nil {
			return err
		}
		w := c.table()
		fmt.Fprintf(w, "ID\t%d\n", p.ProductID)
		fmt.Fprintf(w, "Name\t%s\n", p.ProductName)
		fmt.Fprintf(w, "Category\t%s\n", p.CategoryName)
		fmt.Fprintf(w, "Price\t%s\n", p.Price.StringFixed(2))
		fmt.Fprintf(w, "Summary\t%s\n", p.BriefDescription)
		fmt.Fprintf(w, "Specifications\t%s\n", p.TechnicalSpecifications)
		return w.Flush()
	case "rm":
		if err := c.products.Delete(ctx, id); err != nil {
			return err
		}
		fmt.Fprintf(c.out, "Deleted product %d\n", id)
		return nil
	default:
		return errUsage
	}
}

func (c *cli) listCategories(ctx context.Context) error {
	categories, err := c.categories.Fetch(ctx, model.Filter{})
	if err != nil {
		return err
	}
	w := c.table()
	fmt.Fprintln(w, "ID\tNAME\tPRODUCTS")
	for _, cat := range categories {
		fmt.Fprintf(w, "%d\t%s\t%d\n", cat.CategoryID, cat.CategoryName, cat.ProductCount)
	}
	return w.Flush()
}

func (c *cli) category(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return errUsage
	}
	if args[0] == "add" {
		name := strings.TrimSpace(strings.Join(args[1:], " "))
		req := model.CategoryRequest{CategoryName: name}
		if err := req.Validate(); err != nil {
			return err
		}
		created, err := c.categories.Create(ctx, req)
		if err != nil {
			return err
		}
		fmt.Fprintf(c.out, "Created category %d %s\n", created.CategoryID, created.CategoryName)
		return nil
	}

	id, err := parseID("category", args[1])
	if err != nil {
		return err
	}
	switch args[0] {
	case "show":
		detail, err := c.categories.Detail(ctx, id)
		if err != nil {
			return err
		}
		fmt.Fprintf(c.out, "%s (%d products)\n", detail.CategoryName, detail.ProductCount)
		w := c.table()
		for _, p := range detail.Products {
			fmt.Fprintf(w, "  %d\t%s\t%s\n", p.ProductID, p.ProductName, p.Price.StringFixed(2))
		}
		return w.Flush()
	case "rm":
		if err := c.categories.Delete(ctx, id); err != nil {
			return err
		}
		fmt.Fprintf(c.out, "Deleted category %d\n", id)
		return nil
	default:
		return errUsage
	}
}

func (c *cli) listLocations(ctx context.Context) error {
	locations, err := c.locations.Fetch(ctx, model.Filter{})
	if err != nil {
		return err
	}
	w := c.table()
	fmt.Fprintln(w, "ID\tADDRESS\tLAT\tLNG")
	for _, l := range locations {
		fmt.Fprintf(w, "%d\t%s\t%.4f\t%.4f\n", l.LocationID, l.Address, l.Latitude, l.Longitude)
	}
	return w.Flush()
}

func (c *cli) listOrders(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("orders", flag.ContinueOnError)
	status := fs.String("status", "", "status code or name")
	page := fs.Int("page", 1, "page number")
	size := fs.Int("size", 10, "page size")
	if err := fs.Parse(args); err != nil {
		return err
	}

	initial := model.Filter{PageNumber: 1, PageSize: *size}
	if *status != "" {
		code, err := model.ParseOrderStatus(*status)
		if err != nil {
			return err
		}
		initial.Status = code
	}

	if err := c.fetchPage(ctx, filter.ForStore(initial, c.orders, c.logger), *page); err != nil {
		return err
	}

	st := c.orders.Snapshot()
	w := c.table()
	fmt.Fprintln(w, "ID\tCUSTOMER\tDATE\tTOTAL\tSTATUS")
	for _, o := range st.Items {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n",
			o.OrderID, o.CustomerName, o.OrderDate.Format("2006-01-02"), o.TotalAmount.StringFixed(0), o.CurrentStatus)
	}
	fmt.Fprintf(w, "\nPage %d of %d, %d orders\n", st.PageNumber, st.TotalPages, st.TotalCount)
	return w.Flush()
}

func (c *cli) status(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return errUsage
	}
	sub, rest := args[0], args[1:]
	orderID, err := parseID("order", rest[0])
	if err != nil {
		return err
	}
	rest = rest[1:]

	var statusID int
	if sub == "edit" || sub == "rm" {
		if len(rest) == 0 {
			return errUsage
		}
		if statusID, err = parseID("status", rest[0]); err != nil {
			return err
		}
		rest = rest[1:]
	}

	if _, err := c.statuses.SelectOrder(ctx, orderID); err != nil {
		return err
	}

	switch sub {
	case "list":
	case "add", "edit":
		req, err := parseStatusRequest(sub, rest)
		if err != nil {
			return err
		}
		if sub == "add" {
			err = c.statuses.Append(ctx, orderID, req)
		} else {
			err = c.statuses.Edit(ctx, orderID, statusID, req)
		}
		if err != nil {
			return err
		}
	case "rm":
		fs := flag.NewFlagSet("status rm", flag.ContinueOnError)
		yes := fs.Bool("yes", false, "skip the confirmation prompt")
		if err := fs.Parse(rest); err != nil {
			return err
		}
		confirm := c.prompt
		if *yes {
			confirm = func(int, int) bool { return true }
		}
		if err := c.statuses.Remove(ctx, orderID, statusID, confirm); err != nil {
			return err
		}
	default:
		return errUsage
	}

	snap := c.statuses.Snapshot()
	w := c.table()
	fmt.Fprintf(w, "Order %d\n", orderID)
	fmt.Fprintln(w, "ID\tSTATUS\tUPDATED\tDESCRIPTION")
	for _, s := range snap.History {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", s.OrderStatusID, s.Status, s.UpdatedAt.Format("2006-01-02 15:04"), s.Description)
	}
	return w.Flush()
}

func (c *cli) prompt(orderID, statusID int) bool {
	fmt.Fprintf(c.out, "Remove status record %d of order %d? [y/N] ", statusID, orderID)
	line, err := c.in.ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}

func parseStatusRequest(name string, args []string) (model.OrderStatusRequest, error) {
	fs := flag.NewFlagSet("status "+name, flag.ContinueOnError)
	status := fs.String("status", "", "status code or name")
	desc := fs.String("desc", "", "description")
	if err := fs.Parse(args); err != nil {
		return model.OrderStatusRequest{}, err
	}
	code, err := model.ParseOrderStatus(*status)
	if err != nil {
		return model.OrderStatusRequest{}, err
	}
	return model.OrderStatusRequest{Status: code, Description: *desc}, nil
}

func parseID(what, s string) (int, error) {
	id, err := strconv.Atoi(s)
	if err != nil || id < 1 {
		return 0, model.NewValidationError(what, fmt.Sprintf("invalid %s id %q", what, s))
	}
	return id, nil
}

func parsePrice(field, s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, model.NewValidationError(field, fmt.Sprintf("invalid price %q", s))
	}
	return d, nil
}
