package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tgross03/backpy/internal/core"
)

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Manage backup schedules",
}

var scheduleCreateCmd = &cobra.Command{
	Use:   "create NAME SPACE PATTERN",
	Short: "Create a backup schedule with a cron pattern",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		location := core.LocationLocal
		if name, _ := cmd.Flags().GetString("location"); name != "" {
			if location, err = core.ParseLocation(name); err != nil {
				return err
			}
		}
		include, _ := cmd.Flags().GetStringArray("include")
		exclude, _ := cmd.Flags().GetStringArray("exclude")
		activate, _ := cmd.Flags().GetBool("activate")

		a.StartOperation("schedule create", "", args[0])
		schedule, err := a.Service.CreateSchedule(core.ScheduleParams{
			Name:     args[0],
			SpaceRef: args[1],
			Pattern:  args[2],
			Location: location,
			Include:  include,
			Exclude:  exclude,
			Activate: activate,
		})
		a.FinishOperation(err)
		if err != nil {
			return err
		}

		state := "inactive"
		if activate {
			state = "active"
		}
		fmt.Printf("Created schedule %q (%s, %s)\n", schedule.Name, schedule.UUID, state)
		return nil
	},
}

var scheduleListCmd = &cobra.Command{
	Use:   "list",
	Short: "List backup schedules",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		schedules, err := a.Service.ListSchedules()
		if err != nil {
			return err
		}
		if len(schedules) == 0 {
			fmt.Println("No schedules configured.")
			return nil
		}

		for _, schedule := range schedules {
			state := "inactive"
			if active, err := a.Service.IsScheduleActive(schedule); err == nil && active {
				state = "active"
			}
			fmt.Printf("%s  %-20s  %-16s  %-8s  %s\n",
				schedule.UUID, schedule.Name, schedule.Pattern, state, schedule.SpaceID)
		}
		return nil
	},
}

var scheduleInfoCmd = &cobra.Command{
	Use:   "info SCHEDULE",
	Short: "Show details of a schedule",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		schedule, err := a.Service.ResolveSchedule(args[0])
		if err != nil {
			return err
		}
		active, err := a.Service.IsScheduleActive(schedule)
		if err != nil {
			return err
		}

		fmt.Printf("Schedule %q\n\n", schedule.Name)
		fmt.Printf("UUID:     %s\n", schedule.UUID)
		fmt.Printf("Space:    %s\n", schedule.SpaceID)
		fmt.Printf("Pattern:  %s\n", schedule.Pattern)
		fmt.Printf("Location: %s\n", schedule.Location)
		fmt.Printf("Active:   %t\n", active)
		if len(schedule.Include) > 0 {
			fmt.Printf("Include:  %s\n", strings.Join(schedule.Include, ", "))
		}
		if len(schedule.Exclude) > 0 {
			fmt.Printf("Exclude:  %s\n", strings.Join(schedule.Exclude, ", "))
		}
		return nil
	},
}

var scheduleActivateCmd = &cobra.Command{
	Use:   "activate SCHEDULE",
	Short: "Register a schedule with the system scheduler",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setScheduleActive(args[0], true)
	},
}

var scheduleDeactivateCmd = &cobra.Command{
	Use:   "deactivate SCHEDULE",
	Short: "Remove a schedule from the system scheduler",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setScheduleActive(args[0], false)
	},
}

var scheduleDeleteCmd = &cobra.Command{
	Use:   "delete SCHEDULE",
	Short: "Delete a schedule",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		schedule, err := a.Service.ResolveSchedule(args[0])
		if err != nil {
			return err
		}

		a.StartOperation("schedule delete", schedule.SpaceID, schedule.Name)
		err = a.Service.DeleteSchedule(schedule)
		a.FinishOperation(err)
		if err != nil {
			return err
		}

		fmt.Printf("Deleted schedule %q\n", schedule.Name)
		return nil
	},
}

func setScheduleActive(ref string, active bool) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	schedule, err := a.Service.ResolveSchedule(ref)
	if err != nil {
		return err
	}

	name := "schedule deactivate"
	state := "Deactivated"
	if active {
		name = "schedule activate"
		state = "Activated"
	}

	a.StartOperation(name, schedule.SpaceID, schedule.Name)
	if active {
		err = a.Service.ActivateSchedule(schedule)
	} else {
		err = a.Service.DeactivateSchedule(schedule)
	}
	a.FinishOperation(err)
	if err != nil {
		return err
	}
	fmt.Printf("%s schedule %q\n", state, schedule.Name)
	return nil
}

func init() {
	scheduleCreateCmd.Flags().StringP("location", "l", "", "Storage location for scheduled backups (local, remote, all)")
	scheduleCreateCmd.Flags().StringArray("include", nil, "Include pattern for scheduled backups (repeatable)")
	scheduleCreateCmd.Flags().StringArray("exclude", nil, "Exclude pattern for scheduled backups (repeatable)")
	scheduleCreateCmd.Flags().Bool("activate", false, "Activate the schedule right away")

	scheduleCmd.AddCommand(scheduleCreateCmd)
	scheduleCmd.AddCommand(scheduleListCmd)
	scheduleCmd.AddCommand(scheduleInfoCmd)
	scheduleCmd.AddCommand(scheduleActivateCmd)
	scheduleCmd.AddCommand(scheduleDeactivateCmd)
	scheduleCmd.AddCommand(scheduleDeleteCmd)

	rootCmd.AddCommand(scheduleCmd)
}
