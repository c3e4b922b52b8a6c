package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"time"

	"github.com/lllypuk/corebus/internal/app"
	companyapp "github.com/lllypuk/corebus/internal/application/company"
	"github.com/lllypuk/corebus/internal/bus"
	"github.com/lllypuk/corebus/internal/domain/company"
	"github.com/lllypuk/corebus/internal/domain/result"
	"github.com/lllypuk/corebus/internal/domain/uuid"
)

var errUsage = errors.New("usage error")

// companyView is the JSON shape printed for a company.
type companyView struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Code      string    `json:"code"`
	Active    bool      `json:"active"`
	Version   int       `json:"version"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type listView struct {
	Companies []companyView `json:"companies"`
	Total     int           `json:"total"`
	Offset    int           `json:"offset"`
	Limit     int           `json:"limit"`
	HasMore   bool          `json:"has_more"`
}

func toView(c *company.Company) companyView {
	return companyView{
		ID:        string(c.ID()),
		Name:      c.Name().String(),
		Code:      c.Code().String(),
		Active:    c.IsActive(),
		Version:   c.Version(),
		CreatedAt: c.CreatedAt(),
		UpdatedAt: c.UpdatedAt(),
	}
}

type cli struct {
	container *app.Container
	out       io.Writer
}

func newCLI(container *app.Container, out io.Writer) *cli {
	return &cli{container: container, out: out}
}

// Run executes the subcommand named by args[0].
func (c *cli) Run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		fmt.Fprintln(c.out, "usage: tools <create|rename|deactivate|get|list> [flags]")
		return errUsage
	}

	if timeout := c.container.Config.App.DispatchTimeout; timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	switch args[0] {
	case "create":
		return c.create(ctx, args[1:])
	case "rename":
		return c.rename(ctx, args[1:])
	case "deactivate":
		return c.deactivate(ctx, args[1:])
	case "get":
		return c.get(ctx, args[1:])
	case "list":
		return c.list(ctx, args[1:])
	default:
		fmt.Fprintf(c.out, "unknown command %q\n", args[0])
		return errUsage
	}
}

func (c *cli) flags(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(c.out)
	return fs
}

func (c *cli) create(ctx context.Context, args []string) error {
	fs := c.flags("create")
	name := fs.String("name", "", "company name")
	code := fs.String("code", "", "company code")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}

	res := bus.DispatchCommand[*company.Company](ctx, c.container.Commands,
		companyapp.CreateCompanyCommand{Name: *name, Code: *code})
	return c.printCompany(ctx, res, true)
}

func (c *cli) rename(ctx context.Context, args []string) error {
	fs := c.flags("rename")
	id := fs.String("id", "", "company ID")
	name := fs.String("name", "", "new company name")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}

	companyID, err := uuid.ParseUUID(*id)
	if err != nil {
		return err
	}

	res := bus.DispatchCommand[*company.Company](ctx, c.container.Commands,
		companyapp.RenameCompanyCommand{CompanyID: companyID, Name: *name})
	return c.printCompany(ctx, res, true)
}

func (c *cli) deactivate(ctx context.Context, args []string) error {
	fs := c.flags("deactivate")
	id := fs.String("id", "", "company ID")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}

	companyID, err := uuid.ParseUUID(*id)
	if err != nil {
		return err
	}

	res := bus.DispatchCommand[*company.Company](ctx, c.container.Commands,
		companyapp.DeactivateCompanyCommand{CompanyID: companyID})
	return c.printCompany(ctx, res, true)
}

func (c *cli) get(ctx context.Context, args []string) error {
	fs := c.flags("get")
	id := fs.String("id", "", "company ID")
	code := fs.String("code", "", "company code")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}

	switch {
	case *id != "":
		companyID, err := uuid.ParseUUID(*id)
		if err != nil {
			return err
		}
		return c.printCompany(ctx, bus.DispatchQuery[*company.Company](ctx, c.container.Queries,
			companyapp.GetCompanyQuery{CompanyID: companyID}), false)
	case *code != "":
		return c.printCompany(ctx, bus.DispatchQuery[*company.Company](ctx, c.container.Queries,
			companyapp.FindCompanyByCodeQuery{Code: *code}), false)
	default:
		fmt.Fprintln(c.out, "get requires -id or -code")
		return errUsage
	}
}

func (c *cli) list(ctx context.Context, args []string) error {
	fs := c.flags("list")
	offset := fs.Int("offset", 0, "number of companies to skip")
	limit := fs.Int("limit", 0, "page size (0 for default)")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}

	res := bus.DispatchQuery[companyapp.ListResult](ctx, c.container.Queries,
		companyapp.ListCompaniesQuery{Offset: *offset, Limit: *limit})
	if res.IsFailure() {
		return res.Err()
	}

	page := res.Value()
	view := listView{
		Companies: make([]companyView, 0, len(page.Companies)),
		Total:     page.Total,
		Offset:    page.Offset,
		Limit:     page.Limit,
		HasMore:   page.HasMore(),
	}
	for _, item := range page.Companies {
		view.Companies = append(view.Companies, toView(item))
	}
	return c.print(view)
}

// printCompany prints a single company. After a mutation it flushes an
// in-memory outbox so the events are not lost when the process exits.
func (c *cli) printCompany(ctx context.Context, res result.Result[*company.Company], mutated bool) error {
	if res.IsFailure() {
		return res.Err()
	}
	if mutated && c.container.OutboxWorker != nil && c.container.MongoDB == nil {
		if err := c.container.OutboxWorker.ProcessOnce(ctx); err != nil {
			return fmt.Errorf("flush outbox: %w", err)
		}
	}
	return c.print(toView(res.Value()))
}

func (c *cli) print(v any) error {
	enc := json.NewEncoder(c.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
