package cli

import (
	"fmt"

	"github.com/Azzedine-prog/TAWSK/internal/store"
	"github.com/charmbracelet/huh"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
)

var (
	activityDescription string
	activityTarget      float64
	activityTags        string
	activityName        string
	activityActive      bool
	activityListAll     bool
	activityDeleteYes   bool
)

var activityCmd = &cobra.Command{
	Use:     "activity",
	Aliases: []string{"act", "a"},
	Short:   "Manage activities",
}

var activityAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Create an activity",
	Long: `Create a new, active activity. Names are unique across active and
inactive activities.

Examples:
  studytrack activity add "Deep Work" --target 3 --tags focus,writing`,
	Args: cobra.ExactArgs(1),
	RunE: runActivityAdd,
}

var activityListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List activities",
	RunE:    runActivityList,
}

var activityUpdateCmd = &cobra.Command{
	Use:   "update <id|name>",
	Short: "Change fields of an activity",
	Long: `Change only the fields given as flags; everything else is kept.

Examples:
  studytrack activity update "Deep Work" --target 4
  studytrack activity update 3 --active=false`,
	Args: cobra.ExactArgs(1),
	RunE: runActivityUpdate,
}

var activityDeleteCmd = &cobra.Command{
	Use:     "delete <id|name>",
	Aliases: []string{"rm"},
	Short:   "Delete an activity and all of its daily entries",
	Args:    cobra.ExactArgs(1),
	RunE:    runActivityDelete,
}

func init() {
	rootCmd.AddCommand(activityCmd)
	activityCmd.AddCommand(activityAddCmd, activityListCmd, activityUpdateCmd, activityDeleteCmd)

	activityAddCmd.Flags().StringVar(&activityDescription, "description", "", "Description")
	activityAddCmd.Flags().Float64Var(&activityTarget, "target", 0, "Default target hours per day")
	activityAddCmd.Flags().StringVar(&activityTags, "tags", "", "Free-form tags")

	activityListCmd.Flags().BoolVarP(&activityListAll, "all", "a", false, "Include inactive activities")

	uf := activityUpdateCmd.Flags()
	uf.StringVar(&activityName, "name", "", "New name")
	uf.StringVar(&activityDescription, "description", "", "Description")
	uf.Float64Var(&activityTarget, "target", 0, "Default target hours per day")
	uf.StringVar(&activityTags, "tags", "", "Free-form tags")
	uf.BoolVar(&activityActive, "active", true, "Whether the activity is active")

	activityDeleteCmd.Flags().BoolVarP(&activityDeleteYes, "yes", "y", false, "Skip the confirmation prompt")
}

func runActivityAdd(cmd *cobra.Command, args []string) error {
	a, err := current.store.CreateActivity(args[0], activityDescription, activityTarget, activityTags)
	if err != nil {
		if eris.Is(err, store.ErrDuplicateName) {
			return eris.Errorf("activity %q already exists", args[0])
		}
		return eris.Wrap(err, "failed to create activity")
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s activity %s (#%d)\n",
		successStyle.Render("Created"), titleStyle.Render(a.Name), a.ID)
	return nil
}

func runActivityList(cmd *cobra.Command, args []string) error {
	activities, err := current.store.ListActivities(activityListAll)
	if err != nil {
		return eris.Wrap(err, "failed to list activities")
	}
	out := cmd.OutOrStdout()
	if len(activities) == 0 {
		fmt.Fprintln(out, mutedStyle.Render("No activities yet. Add one with: studytrack activity add <name>"))
		return nil
	}

	fmt.Fprintf(out, "%-5s %-28s %-8s %-20s %s\n", "ID", "NAME", "TARGET", "TAGS", "STATUS")
	for _, a := range activities {
		fmt.Fprintf(out, "%-5d %-28s %-8s %-20s %s\n",
			a.ID, truncate(a.Name, 28), formatHours(a.DefaultTargetHours), truncate(a.Tags, 20), activeLabel(a.IsActive))
	}
	return nil
}

func runActivityUpdate(cmd *cobra.Command, args []string) error {
	a, err := resolveActivity(current.store, args[0])
	if err != nil {
		return eris.Wrapf(err, "activity %q", args[0])
	}

	changed := cmd.Flags().Changed
	var u store.ActivityUpdate
	if changed("name") {
		u.Name = store.Ptr(activityName)
	}
	if changed("description") {
		u.Description = store.Ptr(activityDescription)
	}
	if changed("target") {
		u.DefaultTargetHours = store.Ptr(activityTarget)
	}
	if changed("tags") {
		u.Tags = store.Ptr(activityTags)
	}
	if changed("active") {
		u.IsActive = store.Ptr(activityActive)
	}

	if err := current.store.UpdateActivity(a.ID, u); err != nil {
		return eris.Wrapf(err, "failed to update activity %q", a.Name)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s activity #%d\n", successStyle.Render("Updated"), a.ID)
	return nil
}

func runActivityDelete(cmd *cobra.Command, args []string) error {
	a, err := resolveActivity(current.store, args[0])
	if err != nil {
		return eris.Wrapf(err, "activity %q", args[0])
	}

	if !activityDeleteYes {
		if !interactive() {
			return eris.New("refusing to delete without --yes on a non-interactive terminal")
		}
		confirm := false
		err := huh.NewConfirm().
			Title(fmt.Sprintf("Delete %q and all of its daily entries?", a.Name)).
			Affirmative("Delete").
			Negative("Cancel").
			Value(&confirm).
			Run()
		if err != nil {
			return eris.Wrap(err, "confirmation aborted")
		}
		if !confirm {
			fmt.Fprintln(cmd.OutOrStdout(), mutedStyle.Render("Cancelled"))
			return nil
		}
	}

	if err := current.store.DeleteActivity(a.ID); err != nil {
		return eris.Wrapf(err, "failed to delete activity %q", a.Name)
	}
	current.log.Info("activity deleted", "id", a.ID, "name", a.Name)
	fmt.Fprintf(cmd.OutOrStdout(), "%s activity %s\n", warningStyle.Render("Deleted"), a.Name)
	return nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 1 {
		return string(r[:n])
	}
	return string(r[:n-1]) + "…"
}
