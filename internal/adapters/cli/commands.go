package cli

import (
	"fmt"
	"time"

	"trade-docs/internal/adapters/web"
	"trade-docs/internal/app"
	"trade-docs/internal/core"
	"trade-docs/internal/db"
	"trade-docs/migrations"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		pool, err := rt.connect(cmd.Context())
		if err != nil {
			return err
		}
		applied, err := db.Migrate(cmd.Context(), pool, migrations.FS)
		if err != nil {
			return err
		}
		if len(applied) == 0 {
			fmt.Println("Schema is up to date.")
			return nil
		}
		for _, name := range applied {
			fmt.Printf("Applied %s\n", name)
		}
		return nil
	},
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Register a demo buyer and seller",
	Long: `Registers one buyer and one seller company when no companies exist yet and
prints their ids. When JWT_SECRET is set it also prints a 24h API token for each.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := rt.service(cmd.Context())
		if err != nil {
			return err
		}
		existing, err := svc.ListCompanies(cmd.Context())
		if err != nil {
			return err
		}
		if len(existing) > 0 {
			fmt.Printf("%d companies already registered; nothing to seed.\n", len(existing))
			return nil
		}
		for _, req := range []app.RegisterCompanyRequest{
			{Name: "Acme Corp", Kind: string(core.CompanyKindBuyer)},
			{Name: "Bright Supplies Ltd", Kind: string(core.CompanyKindSeller)},
		} {
			c, err := svc.RegisterCompany(cmd.Context(), req)
			if err != nil {
				return err
			}
			fmt.Printf("%-8s %-22s %s\n", c.Kind, c.Name, c.ID)
			if rt.cfg.JWTSecret != "" {
				token, err := web.IssueToken(rt.cfg.JWTSecret, core.Actor{CompanyID: c.ID, Kind: c.Kind}, 24*time.Hour)
				if err != nil {
					return fmt.Errorf("sign token: %w", err)
				}
				fmt.Printf("         token: %s\n", token)
			}
		}
		return nil
	},
}

var companiesCmd = &cobra.Command{
	Use:   "companies",
	Short: "Register and inspect companies",
}

var companiesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered companies",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := rt.service(cmd.Context())
		if err != nil {
			return err
		}
		companies, err := svc.ListCompanies(cmd.Context())
		if err != nil {
			return err
		}
		for _, c := range companies {
			fmt.Printf("%s  %-8s %s\n", c.ID, c.Kind, c.Name)
		}
		return nil
	},
}

var companiesRegisterCmd = &cobra.Command{
	Use:     "register <name> <buyer|seller>",
	Short:   "Register a company and print its id",
	Example: `  trade-docs companies register "Acme Corp" seller`,
	Args:    cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := rt.service(cmd.Context())
		if err != nil {
			return err
		}
		c, err := svc.RegisterCompany(cmd.Context(), app.RegisterCompanyRequest{Name: args[0], Kind: args[1]})
		if err != nil {
			return err
		}
		fmt.Printf("%s  %-8s %s\n", c.ID, c.Kind, c.Name)
		return nil
	},
}

var documentsCmd = &cobra.Command{
	Use:     "documents",
	Aliases: []string{"docs"},
	Short:   "List, show and act on documents as a company",
}

var documentsListCmd = &cobra.Command{
	Use:   "list <type>",
	Short: "List documents of a type visible to --company",
	Example: `  trade-docs documents list invoice --company <uuid> --owner received
  trade-docs documents list purchase-order --company <uuid> --status APPROVED`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := rt.service(cmd.Context())
		if err != nil {
			return err
		}
		a, err := actor(cmd, svc)
		if err != nil {
			return err
		}
		owner, _ := cmd.Flags().GetString("owner")
		status, _ := cmd.Flags().GetString("status")
		search, _ := cmd.Flags().GetString("q")
		asJSON, _ := cmd.Flags().GetBool("json")

		result, err := svc.ListDocuments(cmd.Context(), a, app.ListDocumentsRequest{
			Type: args[0], Owner: owner, Status: status, Search: search,
		})
		if err != nil {
			return err
		}
		if asJSON {
			return printJSON(result)
		}
		printDocuments(result)
		return nil
	},
}

var documentsShowCmd = &cobra.Command{
	Use:   "show <type> <id>",
	Short: "Show one document as JSON",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := rt.service(cmd.Context())
		if err != nil {
			return err
		}
		a, err := actor(cmd, svc)
		if err != nil {
			return err
		}
		result, err := svc.GetDocument(cmd.Context(), a, args[0], args[1])
		if err != nil {
			return err
		}
		return printJSON(result)
	},
}

var documentsActionCmd = &cobra.Command{
	Use:   "action <type> <id> <action>",
	Short: "Apply a status action to a document",
	Example: `  trade-docs documents action rfq <id> accept --company <uuid>
  trade-docs documents action invoice <id> partial_pay --amount 40 --receipt receipts/abc.pdf --company <uuid>`,
	Args: cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := rt.service(cmd.Context())
		if err != nil {
			return err
		}
		a, err := actor(cmd, svc)
		if err != nil {
			return err
		}
		req := app.ActionRequest{Type: args[0], ID: args[1], Action: args[2]}
		if s, _ := cmd.Flags().GetString("amount"); s != "" {
			amount, err := decimal.NewFromString(s)
			if err != nil {
				return fmt.Errorf("--amount: %w", err)
			}
			req.Amount = &amount
		}
		req.ReceiptRef, _ = cmd.Flags().GetString("receipt")
		req.Note, _ = cmd.Flags().GetString("note")
		req.SignatureRef, _ = cmd.Flags().GetString("signature")

		result, err := svc.ApplyAction(cmd.Context(), a, req)
		if err != nil {
			return err
		}
		fmt.Printf("%s is now %s\n", result.Code, result.Status)
		return nil
	},
}

var invoicesCmd = &cobra.Command{
	Use:   "invoices",
	Short: "Invoice maintenance jobs",
}

var sweepOverdueCmd = &cobra.Command{
	Use:   "sweep-overdue",
	Short: "Mark pending invoices past their due date as OVERDUE",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := rt.service(cmd.Context())
		if err != nil {
			return err
		}
		asOf := time.Now().UTC()
		if s, _ := cmd.Flags().GetString("as-of"); s != "" {
			if asOf, err = parseDay(s); err != nil {
				return fmt.Errorf("--as-of: %w", err)
			}
		}
		n, err := svc.SweepOverdueInvoices(cmd.Context(), asOf)
		if err != nil {
			return err
		}
		fmt.Printf("%d invoice(s) marked OVERDUE as of %s\n", n, asOf.Format("2006-01-02"))
		return nil
	},
}

func init() {
	companiesCmd.AddCommand(companiesListCmd, companiesRegisterCmd)

	documentsListCmd.Flags().String("owner", "all", "issued | received | all")
	documentsListCmd.Flags().String("status", "", "filter by status")
	documentsListCmd.Flags().String("q", "", "search code, parties and notes")
	documentsListCmd.Flags().Bool("json", false, "print JSON instead of a table")

	documentsActionCmd.Flags().String("amount", "", "payment amount for partial_pay")
	documentsActionCmd.Flags().String("receipt", "", "stored receipt reference")
	documentsActionCmd.Flags().String("note", "", "reason or comment")
	documentsActionCmd.Flags().String("signature", "", "stored signature reference")

	documentsCmd.AddCommand(documentsListCmd, documentsShowCmd, documentsActionCmd)

	sweepOverdueCmd.Flags().String("as-of", "", "cutoff date YYYY-MM-DD (default today)")
	invoicesCmd.AddCommand(sweepOverdueCmd)
}
