package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"stuff-lending/commands"
	"stuff-lending/lending"
)

type catalogue struct {
	Members []catalogueMember `json:"members"`
}

type catalogueMember struct {
	Name  string          `json:"name"`
	Phone string          `json:"phone"`
	Email string          `json:"email"`
	Items []catalogueItem `json:"items"`
}

type catalogueItem struct {
	Name        string      `json:"name"`
	Category    string      `json:"category"`
	Description string      `json:"description"`
	CostPerDay  json.Number `json:"cost_per_day"`
}

type importResult struct {
	Members, Items, Errors int
}

func main() {
	cmd := &cobra.Command{
		Use:          "import_items <catalogue.json>",
		Short:        "Import members and their items from a JSON catalogue",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("failed to open catalogue: %w", err)
			}
			defer f.Close()

			mgr, _, err := commands.OpenManager(cmd.Context())
			if err != nil {
				return err
			}
			defer mgr.Close()

			res, err := importCatalogue(cmd.Context(), mgr, f, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "\nImport complete!\n")
			fmt.Fprintf(cmd.OutOrStdout(), "Members imported: %d\n", res.Members)
			fmt.Fprintf(cmd.OutOrStdout(), "Items imported: %d\n", res.Items)
			fmt.Fprintf(cmd.OutOrStdout(), "Errors: %d\n", res.Errors)
			return nil
		},
	}

	if err := cmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// importCatalogue adds every member and item it can. A member that fails is
// skipped along with its items; other entries still go in.
func importCatalogue(ctx context.Context, mgr *lending.Manager, r io.Reader, out io.Writer) (importResult, error) {
	var cat catalogue
	if err := json.NewDecoder(r).Decode(&cat); err != nil {
		return importResult{}, fmt.Errorf("failed to parse catalogue: %w", err)
	}

	var res importResult
	for _, cm := range cat.Members {
		fmt.Fprintf(out, "Importing member: %s... ", cm.Name)
		m, err := mgr.AddMember(ctx, cm.Name, cm.Phone, cm.Email)
		if err != nil {
			fmt.Fprintf(out, "ERROR - %v\n", err)
			res.Errors++
			continue
		}
		fmt.Fprintf(out, "SUCCESS (ID: %s)\n", m.ID)
		res.Members++

		for _, ci := range cm.Items {
			fmt.Fprintf(out, "  Importing item: %s... ", ci.Name)
			in, err := ci.input()
			if err == nil {
				var it lending.Item
				if it, err = mgr.AddItem(ctx, m.ID, in); err == nil {
					fmt.Fprintf(out, "SUCCESS (ID: %s)\n", it.ID)
					res.Items++
					continue
				}
			}
			fmt.Fprintf(out, "ERROR - %v\n", err)
			res.Errors++
		}
	}
	return res, nil
}

func (ci catalogueItem) input() (lending.ItemInput, error) {
	cat, err := lending.ParseCategory(ci.Category)
	if err != nil {
		return lending.ItemInput{}, err
	}
	cost, err := lending.ParseCredits(strings.TrimSpace(ci.CostPerDay.String()))
	if err != nil {
		return lending.ItemInput{}, err
	}
	return lending.ItemInput{
		Name:        ci.Name,
		Category:    cat,
		Description: ci.Description,
		CostPerDay:  cost,
	}, nil
}
