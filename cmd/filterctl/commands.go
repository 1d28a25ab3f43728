package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"careindex/internal/domain/filter"
	"careindex/internal/domain/search"
	"careindex/internal/infrastructure/storage/postgres"
	"careindex/internal/metadata"
)

func newColumnsCmd() *cobra.Command {
	var category string
	cmd := &cobra.Command{
		Use:   "columns",
		Short: "List filterable columns",
		RunE: func(cmd *cobra.Command, _ []string) error {
			doc := metadata.NewRegistry(filter.DefaultCatalog()).Columns()
			cols := doc.Columns
			if category != "" {
				cols = cols[:0:0]
				for _, c := range doc.Columns {
					if c.Category == category {
						cols = append(cols, c)
					}
				}
				if len(cols) == 0 {
					return fmt.Errorf("unknown category %q", category)
				}
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), cols)
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tTYPE\tTABLE\tCATEGORY\tOPERATORS")
			for _, c := range cols {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", c.Name, c.Type, c.Table, c.Category, strings.Join(c.Operators, ","))
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVar(&category, "category", "", "only list columns of this category")
	return cmd
}

func newOperatorsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "operators",
		Short: "List operators and the value types they apply to",
		RunE: func(cmd *cobra.Command, _ []string) error {
			doc := metadata.NewRegistry(filter.DefaultCatalog()).Operators()
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), doc)
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "OPERATOR\tTYPES\tDESCRIPTION")
			for _, op := range filter.Operators() {
				name := string(op)
				fmt.Fprintf(tw, "%s\t%s\t%s\n", name, strings.Join(doc.ApplicableTypes[name], ","), doc.Operators[name])
			}
			return tw.Flush()
		},
	}
}

// sqlOutput is the JSON form of the sql command.
type sqlOutput struct {
	Count     string `json:"count"`
	CountArgs []any  `json:"count_args"`
	Page      string `json:"page"`
	PageArgs  []any  `json:"page_args"`
}

func newSQLCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sql QUERY",
		Short: "Compile a filter-data query string and print the SQL it runs",
		Example: `  filterctl sql 'location_city=Leeds,York&care_homes_beds_min=10&order_by=location_name'
  filterctl sql 'filters=[{"column":"provider_name","value":"care","operator":"contains","case_sensitive":false}]'`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			spec, err := compileQuery(strings.TrimPrefix(args[0], "?"))
			if err != nil {
				return err
			}

			count, countArgs, err := postgres.CountQuery(spec).ToSql()
			if err != nil {
				return fmt.Errorf("build count query: %w", err)
			}
			page, pageArgs, err := postgres.PageQuery(spec).ToSql()
			if err != nil {
				return fmt.Errorf("build page query: %w", err)
			}

			out := sqlOutput{Count: count, CountArgs: countArgs, Page: page, PageArgs: pageArgs}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), out)
			}
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "-- count\n%s;\n-- args: %v\n\n-- page\n%s;\n-- args: %v\n", out.Count, out.CountArgs, out.Page, out.PageArgs)
			return nil
		},
	}
}

// offlineRepo lets the CLI build a search.Service without a database.
// Only Compile is ever called on that service.
type offlineRepo struct{}

var errOffline = errors.New("filterctl has no database")

func (offlineRepo) Count(context.Context, filter.QuerySpec) (int64, error) { return 0, errOffline }

func (offlineRepo) Find(context.Context, filter.QuerySpec) ([]filter.Record, error) {
	return nil, errOffline
}

// compileQuery runs a raw query string through the same parse and compile
// path the HTTP handler uses.
func compileQuery(raw string) (filter.QuerySpec, error) {
	values, err := url.ParseQuery(raw)
	if err != nil {
		return filter.QuerySpec{}, fmt.Errorf("parse query string: %w", err)
	}

	svc, err := search.NewService(search.ServiceConfig{
		Catalog: filter.DefaultCatalog(),
		Limits:  limits,
		Repo:    offlineRepo{},
	})
	if err != nil {
		return filter.QuerySpec{}, err
	}

	req, err := search.ParseQuery(values)
	if err != nil {
		return filter.QuerySpec{}, err
	}
	return svc.Compile(req)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
