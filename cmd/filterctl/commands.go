package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"slices"
	"strings"

	"github.com/matst80/slask-storefront/pkg/facet"
	"github.com/matst80/slask-storefront/pkg/types"
	"github.com/spf13/cobra"
)

type RootOptions struct {
	Catalog string
	Format  string
	Path    string
}

var validFormats = []string{"text", "json"}

func (o *RootOptions) loadCatalog() (*facet.Catalog, error) {
	if o.Catalog == "" {
		return facet.Default(), nil
	}
	return facet.LoadYAML(o.Catalog)
}

type stateOutput struct {
	Url    string            `json:"url"`
	Query  string            `json:"query"`
	Active int               `json:"active"`
	State  types.FilterState `json:"state"`
}

func (o *RootOptions) writeState(w io.Writer, state types.FilterState) error {
	link := types.CanonicalURL(o.Path, state)
	if o.Format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(stateOutput{
			Url:    link,
			Query:  types.QueryString(state),
			Active: state.ActiveFilterCount(),
			State:  state,
		})
	}
	_, err := fmt.Fprintln(w, link)
	return err
}

func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}
	cmd := &cobra.Command{
		Use:   "filterctl",
		Short: "Inspect storefront filter urls",
		Long:  "Build, normalize and explain the query strings used by the game listing filters.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(validFormats, opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, validFormats)
			}
			return nil
		},
	}
	cmd.PersistentFlags().StringVar(&opts.Catalog, "catalog", "", "facet catalog yaml (defaults to the built in catalog)")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.Path, "path", "/games", "listing path used for urls")

	cmd.AddCommand(newEncodeCommand(opts))
	cmd.AddCommand(newDecodeCommand(opts))
	cmd.AddCommand(newOptionsCommand(opts))
	return cmd
}

type encodeFlags struct {
	search     string
	genres     []string
	platforms  []string
	publishers []string
	min        float64
	max        float64
	rating     string
	year       string
	sale       bool
	sort       string
}

func newEncodeCommand(opts *RootOptions) *cobra.Command {
	f := &encodeFlags{}
	cmd := &cobra.Command{
		Use:          "encode",
		Short:        "Print the canonical url for a set of filters",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			catalog, err := opts.loadCatalog()
			if err != nil {
				return err
			}
			state := types.DefaultFilterState().
				SetSearch(f.search).
				SetPriceRange(f.min, f.max).
				SetRatingString(f.rating).
				SetReleaseYear(f.year).
				SetOnSale(f.sale)
			if f.sort != "" {
				state = state.SetSortBy(f.sort)
			}
			for _, id := range f.genres {
				state = state.SetGenre(id, true)
			}
			for _, id := range f.platforms {
				state = state.SetPlatform(id, true)
			}
			for _, id := range f.publishers {
				state = state.SetPublisher(id, true)
			}
			return opts.writeState(cmd.OutOrStdout(), state.Validate(catalog))
		},
	}
	cmd.Flags().StringVarP(&f.search, "search", "q", "", "free text search")
	cmd.Flags().StringSliceVar(&f.genres, "genre", nil, "genre ids")
	cmd.Flags().StringSliceVar(&f.platforms, "platform", nil, "platform ids")
	cmd.Flags().StringSliceVar(&f.publishers, "publisher", nil, "publisher ids")
	cmd.Flags().Float64Var(&f.min, "min", types.PriceDomainMin, "lowest price")
	cmd.Flags().Float64Var(&f.max, "max", types.PriceDomainMax, "highest price")
	cmd.Flags().StringVar(&f.rating, "rating", types.AnyValue, "minimum rating")
	cmd.Flags().StringVar(&f.year, "year", types.AnyValue, "release year")
	cmd.Flags().BoolVar(&f.sale, "sale", false, "only discounted games")
	cmd.Flags().StringVar(&f.sort, "sort", "", "sort order")
	return cmd
}

// parseQueryArg accepts a full url, a path with a query or a bare query.
func parseQueryArg(arg string) (url.Values, error) {
	if i := strings.IndexByte(arg, '?'); i >= 0 {
		arg = arg[i+1:]
	}
	values, err := url.ParseQuery(arg)
	if err != nil {
		return nil, fmt.Errorf("parse query %q: %w", arg, err)
	}
	return values, nil
}

func newDecodeCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:          "decode <url>",
		Short:        "Normalize a listing url",
		Long:         "Decode a listing url the way the storefront does and print its canonical form. Unknown ids and malformed values are dropped.",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			catalog, err := opts.loadCatalog()
			if err != nil {
				return err
			}
			values, err := parseQueryArg(args[0])
			if err != nil {
				return err
			}
			return opts.writeState(cmd.OutOrStdout(), types.DecodeQuery(values, catalog))
		},
	}
}

func newOptionsCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:          "options [genre|platform|publisher]",
		Short:        "List the facet options",
		Args:         cobra.MaximumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			catalog, err := opts.loadCatalog()
			if err != nil {
				return err
			}
			kinds := types.FacetKinds
			if len(args) == 1 {
				kind := types.FacetKind(args[0])
				if !slices.Contains(types.FacetKinds, kind) {
					return fmt.Errorf("unknown facet %q", args[0])
				}
				kinds = []types.FacetKind{kind}
			}
			w := cmd.OutOrStdout()
			if opts.Format == "json" {
				out := make(map[types.FacetKind][]facet.Option, len(kinds))
				for _, kind := range kinds {
					out[kind] = catalog.Options(kind)
				}
				return json.NewEncoder(w).Encode(out)
			}
			for _, kind := range kinds {
				for _, o := range catalog.Options(kind) {
					fmt.Fprintf(w, "%s\t%s\t%s\n", kind, o.Id, o.Name)
				}
			}
			return nil
		},
	}
}
