package main

import (
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/fentz26/supportdesk/internal/adminapi"
	"github.com/spf13/cobra"
)

var repCmd = &cobra.Command{
	Use:     "rep",
	Aliases: []string{"representative"},
	Short:   "Manage support representatives",
}

var repAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a representative",
	RunE:  runRepAdd,
}

var repListCmd = &cobra.Command{
	Use:   "list",
	Short: "List representatives",
	RunE:  runRepList,
}

var customerCmd = &cobra.Command{
	Use:   "customer",
	Short: "Manage customers",
}

var customerListCmd = &cobra.Command{
	Use:   "list",
	Short: "List customers",
	RunE:  runCustomerList,
}

var customerImportCmd = &cobra.Command{
	Use:   "import <file.csv>",
	Short: "Import customers from a CSV file with name and email columns",
	Args:  cobra.ExactArgs(1),
	RunE:  runCustomerImport,
}

var (
	repName     string
	repEmail    string
	repSkillset string
	repStatus   string
)

func init() {
	repAddCmd.Flags().StringVar(&repName, "name", "", "Full name")
	repAddCmd.Flags().StringVar(&repEmail, "email", "", "Email address")
	repAddCmd.Flags().StringVar(&repSkillset, "skillset", "", "Skillset, e.g. Billing")
	repAddCmd.Flags().StringVar(&repStatus, "status", "", "Status (default Active)")
	repAddCmd.MarkFlagRequired("name")
	repAddCmd.MarkFlagRequired("email")

	repCmd.AddCommand(repAddCmd)
	repCmd.AddCommand(repListCmd)
	customerCmd.AddCommand(customerListCmd)
	customerCmd.AddCommand(customerImportCmd)
}

func runRepAdd(cmd *cobra.Command, args []string) error {
	rep, err := client().CreateRepresentative(adminapi.RepresentativeRequest{
		Name:     repName,
		Email:    repEmail,
		Skillset: repSkillset,
		Status:   repStatus,
	})
	if err != nil {
		return err
	}
	fmt.Printf("Added representative %s (%s)\n", rep.Name, rep.ID)
	return nil
}

func runRepList(cmd *cobra.Command, args []string) error {
	reps, err := client().ListRepresentatives()
	if err != nil {
		return err
	}
	if len(reps) == 0 {
		fmt.Println("No representatives found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tEMAIL\tSKILLSET\tSTATUS")
	for _, r := range reps {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", r.Name, r.Email, r.Skillset, r.Status)
	}
	return w.Flush()
}

func runCustomerList(cmd *cobra.Command, args []string) error {
	customers, err := client().ListCustomers()
	if err != nil {
		return err
	}
	if len(customers) == 0 {
		fmt.Println("No customers found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tEMAIL\tPHONE\tCOMPANY")
	for _, c := range customers {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", c.Name, c.Email, c.Phone, c.Company)
	}
	return w.Flush()
}

func runCustomerImport(cmd *cobra.Command, args []string) error {
	f, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer f.Close()

	n, err := client().UploadCustomers(filepath.Base(args[0]), f)
	if err != nil {
		return err
	}
	fmt.Printf("Imported %d customers\n", n)
	return nil
}
