package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/grovetools/zzz/pkg/depcache"
	"github.com/grovetools/zzz/pkg/manifest"
	"github.com/spf13/cobra"
)

func newCacheCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and extend the dependency cache",
		Long: `The dependency cache at ~/.snooze/cache/cache.yaml maps each known tool to
the tools it requires. 'zzz load' resolves declared tools against it.`,
	}
	cmd.AddCommand(newCacheShowCmd(a), newCacheAddCmd(a), newCachePathCmd(a))
	return cmd
}

func newCacheShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "List the cached tools and their requirements",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cache, err := depcache.Load(a.layout.CacheFile())
			if err != nil {
				return err
			}
			if cache.Len() == 0 {
				a.ui.Info("The dependency cache is empty")
				return nil
			}

			w := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "PACKAGE\tMETHOD\tREQUIRES")
			for _, e := range cache.Entries() {
				var requires []string
				for _, r := range e.Requires {
					requires = append(requires, r.Name)
				}
				fmt.Fprintf(w, "%s\t%s\t%s\n", e.Package.Name, e.Package.Method, joinNames(requires))
			}
			return w.Flush()
		},
	}
}

func newCacheAddCmd(a *app) *cobra.Command {
	var (
		method   string
		requires []string
	)

	cmd := &cobra.Command{
		Use:   "add <tool> <link>",
		Short: "Add or replace a cache entry",
		Long: `Record a tool and its requirements in the dependency cache, creating the
cache file if needed. Each --require is name=link; links ending in .git
are built from source, anything else is downloaded.`,
		Example: `  zzz cache add rg https://example.com/rg --require pcre=https://example.com/pcre`,
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := manifest.ParseMethod(method)
			if err != nil {
				return err
			}
			entry := depcache.Entry{Package: manifest.Tool{Name: args[0], Link: args[1], Method: m}}
			for _, r := range requires {
				tool, err := parseRequirement(r)
				if err != nil {
					return err
				}
				entry.Requires = append(entry.Requires, tool)
			}

			path := a.layout.CacheFile()
			cache, err := depcache.Load(path)
			if err != nil {
				// Only a missing file starts a new cache; a broken one is kept.
				if _, statErr := os.Stat(path); !errors.Is(statErr, os.ErrNotExist) {
					return err
				}
				cache = depcache.New(nil)
			}

			cache.Put(entry)
			if err := cache.Save(path); err != nil {
				return err
			}
			a.ui.Success("Cached %s with %d %s", toolNameStyle.Render(entry.Package.Name), len(entry.Requires), plural(len(entry.Requires), "requirement", "requirements"))
			return nil
		},
	}
	cmd.Flags().StringVarP(&method, "method", "m", "linkzip", "Install method: linkzip or git")
	cmd.Flags().StringArrayVarP(&requires, "require", "r", nil, "Required tool as name=link (repeatable)")
	return cmd
}

// parseRequirement parses name=link into a tool descriptor.
func parseRequirement(s string) (manifest.Tool, error) {
	name, link, ok := strings.Cut(s, "=")
	if !ok || name == "" || link == "" {
		return manifest.Tool{}, fmt.Errorf("invalid requirement %q (expected name=link)", s)
	}
	method := manifest.MethodLinkArchive
	if strings.HasSuffix(link, ".git") {
		method = manifest.MethodGitSource
	}
	return manifest.Tool{Name: name, Link: link, Method: method}, nil
}

func newCachePathCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the cache file location",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(a.out, a.layout.CacheFile())
			return nil
		},
	}
}
