package main

import (
	"fmt"
	"os"

	"github.com/matuszelenak/trojsten-graph/config"
	"github.com/matuszelenak/trojsten-graph/domain"
	"github.com/matuszelenak/trojsten-graph/services/graph/repository"
	"github.com/matuszelenak/trojsten-graph/services/graph/usecase"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := config.BootDB(true)
		return err
	},
}

var deriveFamilyCmd = &cobra.Command{
	Use:   "derive-family",
	Short: "Derive missing sibling and parent statuses",
	Long:  "Derives sibling statuses from shared parents and parent statuses across siblings. Without --apply only the plan is printed.",
	RunE: func(cmd *cobra.Command, args []string) error {
		apply, _ := cmd.Flags().GetBool("apply")

		admin, err := adminUseCase()
		if err != nil {
			return err
		}
		report, err := admin.DeriveFamily(cmd.Context(), apply)
		if err != nil {
			return err
		}

		for _, link := range report.Links {
			fmt.Fprintf(cmd.OutOrStdout(), "%d %s %d since %s\n", link.FirstID, link.Kind, link.SecondID, dateOrUnknown(link))
		}
		config.GetLogrusInstance().WithFields(logrus.Fields{
			"links":   len(report.Links),
			"skipped": report.Skipped,
			"applied": report.Applied,
		}).Info("Family derivation finished")
		return nil
	},
}

func dateOrUnknown(link domain.FamilyLink) string {
	if link.DateStart == nil {
		return "unknown"
	}
	return link.DateStart.String()
}

var generateManagementCmd = &cobra.Command{
	Use:   "generate-management",
	Short: "Let parents manage the content of their children",
	RunE: func(cmd *cobra.Command, args []string) error {
		admin, err := adminUseCase()
		if err != nil {
			return err
		}
		created, err := admin.GenerateManagement(cmd.Context())
		if err != nil {
			return err
		}
		config.GetLogrusInstance().WithField("created", created).Info("Management authorities generated")
		return nil
	},
}

var inviteCodesCmd = &cobra.Command{
	Use:   "invite-codes",
	Short: "Generate registration invite codes",
	RunE: func(cmd *cobra.Command, args []string) error {
		count, _ := cmd.Flags().GetInt("count")

		admin, err := adminUseCase()
		if err != nil {
			return err
		}
		codes, err := admin.GenerateInviteCodes(cmd.Context(), count)
		if err != nil {
			return err
		}
		for _, c := range codes {
			fmt.Fprintln(cmd.OutOrStdout(), c.Code)
		}
		return nil
	},
}

var importCmd = &cobra.Command{
	Use:   "import <dump>",
	Short: "Import a legacy YAML or JSON dump",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dump, err := readDump(args[0])
		if err != nil {
			return err
		}

		admin, err := adminUseCase()
		if err != nil {
			return err
		}
		report, err := admin.Import(cmd.Context(), dump)
		if err != nil {
			return err
		}
		config.GetLogrusInstance().WithFields(logrus.Fields{
			"people":        report.People,
			"groups":        report.Groups,
			"memberships":   report.Memberships,
			"relationships": report.Relationships,
			"statuses":      report.Statuses,
		}).Info("Dump imported")
		return nil
	},
}

// readDump accepts YAML as well as JSON, which YAML parses as a subset.
func readDump(path string) (domain.Dump, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var dump domain.Dump
	if err := yaml.NewDecoder(f).Decode(&dump); err != nil {
		return nil, fmt.Errorf("reading dump %s: %w", path, err)
	}
	return dump, nil
}

func adminUseCase() (domain.AdminUseCase, error) {
	db, err := config.BootDB(false)
	if err != nil {
		return nil, err
	}
	return usecase.NewAdminUseCase(repository.NewGraphRepository(db), config.GetUseCaseTimeout()), nil
}

func init() {
	deriveFamilyCmd.Flags().Bool("apply", false, "store the derived statuses")
	inviteCodesCmd.Flags().IntP("count", "n", 10, "number of codes")

	rootCmd.AddCommand(migrateCmd, deriveFamilyCmd, generateManagementCmd, inviteCodesCmd, importCmd)
}
