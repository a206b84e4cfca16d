package main

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/veranek/receiptwise/internal/cli"
	"github.com/veranek/receiptwise/internal/common"
)

func categoriesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "categories",
		Short: "Manage expense categories",
		Long:  `List, add, rename, and delete the categories records are filed under.`,
	}

	cmd.AddCommand(listCategoriesCmd())
	cmd.AddCommand(addCategoryCmd())
	cmd.AddCommand(renameCategoryCmd())
	cmd.AddCommand(deleteCategoryCmd())

	return cmd
}

func listCategoriesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all categories",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, err := initStore(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			categories, err := store.ListCategories(ctx, currentUser())
			if err != nil {
				return fmt.Errorf("failed to list categories: %w", err)
			}
			if len(categories) == 0 {
				fmt.Println(cli.InfoStyle.Render("No categories found. Use 'receiptwise categories add' to create one."))
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			defer func() { _ = w.Flush() }()

			fmt.Fprintf(w, "%s\t%s\t%s\n",
				cli.TableHeaderStyle.Render("Name"),
				cli.TableHeaderStyle.Render("Color"),
				cli.TableHeaderStyle.Render("Monthly Budget"))
			fmt.Fprintf(w, "%s\t%s\t%s\n",
				strings.Repeat("-", 20),
				strings.Repeat("-", 8),
				strings.Repeat("-", 14))

			for _, cat := range categories {
				color := cat.Color
				if color == "" {
					color = cli.SubtleStyle.Render("-")
				}
				budget := cli.SubtleStyle.Render("-")
				if cat.MonthlyBudget != nil {
					budget = fmt.Sprintf("$%.2f", *cat.MonthlyBudget)
				}
				fmt.Fprintf(w, "%s\t%s\t%s\n", cat.Name, color, budget)
			}
			return nil
		},
	}
}

func addCategoryCmd() *cobra.Command {
	var (
		color  string
		budget float64
	)

	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add a new category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			name := args[0]

			store, err := initStore(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			var monthlyBudget *float64
			if cmd.Flags().Changed("budget") {
				monthlyBudget = &budget
			}

			category, err := store.CreateCategory(ctx, currentUser(), name, color, monthlyBudget)
			if err != nil {
				if errors.Is(err, common.ErrDuplicateCategory) {
					return fmt.Errorf("a category named %q already exists (names are case-insensitive)", name)
				}
				return fmt.Errorf("failed to create category: %w", err)
			}

			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Created category %q", category.Name)))
			return nil
		},
	}

	cmd.Flags().StringVar(&color, "color", "", "display color, e.g. #4ECDC4")
	cmd.Flags().Float64Var(&budget, "budget", 0, "monthly budget amount")

	return cmd
}

func renameCategoryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rename <old-name> <new-name>",
		Short: "Rename a category",
		Long:  `Rename a category. Existing records filed under it follow the new name.`,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			oldName, newName := args[0], args[1]

			store, err := initStore(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			category, err := store.GetCategoryByName(ctx, currentUser(), oldName)
			if err != nil {
				return fmt.Errorf("failed to look up category: %w", err)
			}
			if category == nil {
				return fmt.Errorf("no category named %q", oldName)
			}

			if err := store.RenameCategory(ctx, currentUser(), category.ID, newName); err != nil {
				if errors.Is(err, common.ErrDuplicateCategory) {
					return fmt.Errorf("a category named %q already exists (names are case-insensitive)", newName)
				}
				return fmt.Errorf("failed to rename category: %w", err)
			}

			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Renamed %q to %q", oldName, newName)))
			return nil
		},
	}
}

func deleteCategoryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <name>",
		Short: "Delete a category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			name := args[0]

			store, err := initStore(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			category, err := store.GetCategoryByName(ctx, currentUser(), name)
			if err != nil {
				return fmt.Errorf("failed to look up category: %w", err)
			}
			if category == nil {
				return fmt.Errorf("no category named %q", name)
			}

			if err := store.DeleteCategory(ctx, currentUser(), category.ID); err != nil {
				if errors.Is(err, common.ErrLastCategory) {
					return fmt.Errorf("cannot delete %q: at least one category must remain", name)
				}
				return fmt.Errorf("failed to delete category: %w", err)
			}

			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Deleted category %q", name)))
			return nil
		},
	}
}
