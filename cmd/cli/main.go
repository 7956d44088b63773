package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/jakechorley/shift-swap/internal/config"
	"github.com/jakechorley/shift-swap/pkg/clients/gmailclient"
	"github.com/jakechorley/shift-swap/pkg/core/identity"
	"github.com/jakechorley/shift-swap/pkg/core/services"
	"github.com/jakechorley/shift-swap/pkg/db"
	"github.com/jakechorley/shift-swap/pkg/docstore"
	"github.com/jakechorley/shift-swap/pkg/postgres"
	"github.com/jakechorley/shift-swap/pkg/utils"
	"github.com/jakechorley/shift-swap/pkg/utils/logging"
)

// App holds the application dependencies
type App struct {
	cfg      *config.Config
	database db.Database
	notifier services.Notifier
	logger   *zap.Logger
	ctx      context.Context
}

var (
	env string
	app *App
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "cli",
		Short: "Shift Swap CLI - Manage employee shifts and swap requests",
		Long:  `A CLI tool for managing work-shift schedules, peer-to-peer shift swaps, and the activity ledger.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initApp()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if app != nil && app.logger != nil {
				app.logger.Sync()
			}
		},
	}

	rootCmd.PersistentFlags().StringVarP(&env, "env", "e", "", "Environment (required: test, prod, etc.)")
	rootCmd.MarkPersistentFlagRequired("env")

	rootCmd.AddCommand(addEmployeeCmd())
	rootCmd.AddCommand(listEmployeesCmd())
	rootCmd.AddCommand(createShiftCmd())
	rootCmd.AddCommand(listShiftsCmd())
	rootCmd.AddCommand(moveShiftCmd())
	rootCmd.AddCommand(deleteShiftCmd())
	rootCmd.AddCommand(generateShiftsCmd())
	rootCmd.AddCommand(requestSwapCmd())
	rootCmd.AddCommand(respondSwapCmd())
	rootCmd.AddCommand(listSwapsCmd())
	rootCmd.AddCommand(watchCmd())
	rootCmd.AddCommand(activityCmd())
	rootCmd.AddCommand(checkCmd())
	rootCmd.AddCommand(interactiveCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// initApp sets up logger, config, store backend, and the optional notifier
func initApp() error {
	var err error
	app = &App{
		ctx: context.Background(),
	}

	app.logger, err = logging.InitLogger(env)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	app.logger.Info("Starting application", zap.String("environment", env))

	app.cfg, err = config.LoadWithEnv(env)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	app.logger.Debug("Configuration loaded successfully")

	switch app.cfg.StoreBackend {
	case "postgres":
		app.logger.Info("Connecting to postgres")
		pgDB, err := postgres.NewDB(app.ctx, app.cfg.PostgresURL)
		if err != nil {
			return fmt.Errorf("failed to connect to postgres: %w", err)
		}
		if err := pgDB.RunMigrations(app.ctx); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
		app.database = pgDB
	default:
		app.logger.Info("Opening document store", zap.String("data_file", app.cfg.DataFile))
		var indexes []docstore.CompositeIndex
		if app.cfg.OwnerShiftIndex {
			indexes = append(indexes, db.ShiftIndex)
		}
		store, err := docstore.NewMemoryStore(app.cfg.DataFile, indexes...)
		if err != nil {
			return fmt.Errorf("failed to open document store: %w", err)
		}
		app.database = db.NewDB(store)
	}

	if err := seedEmployees(); err != nil {
		return err
	}

	if app.cfg.Notifications.Enabled {
		if err := initNotifier(); err != nil {
			return fmt.Errorf("failed to initialize notifier: %w", err)
		}
	}

	app.logger.Info("Database initialized successfully")
	return nil
}

// seedEmployees populates an empty employee directory from config.
// Directory state is rebuilt from the store at every process start, never
// held as ambient globals.
func seedEmployees() error {
	employees, err := app.database.GetEmployees(app.ctx)
	if err != nil {
		return fmt.Errorf("failed to read employee directory: %w", err)
	}
	if len(employees) > 0 || len(app.cfg.SeedEmployees) == 0 {
		return nil
	}

	app.logger.Info("Seeding employee directory", zap.Int("count", len(app.cfg.SeedEmployees)))
	for _, seed := range app.cfg.SeedEmployees {
		employee := &db.Employee{
			DisplayName: seed.Name,
			Role:        db.Role(seed.Role),
			Email:       seed.Email,
		}
		if err := app.database.InsertEmployee(app.ctx, employee); err != nil {
			return fmt.Errorf("failed to seed employee %q: %w", seed.Name, err)
		}
	}
	return nil
}

func initNotifier() error {
	app.logger.Info("Initializing gmail notifier")
	oauthCfg, err := config.LoadOAuthClientWithEnv(env)
	if err != nil {
		return fmt.Errorf("failed to load OAuth client config: %w", err)
	}

	oauthConfig, err := utils.GetOAuthConfig(oauthCfg)
	if err != nil {
		return err
	}

	token, err := utils.GetTokenWithFlow(app.ctx, oauthConfig)
	if err != nil {
		return fmt.Errorf("failed to obtain OAuth token: %w", err)
	}

	client, err := gmailclient.NewClient(app.ctx, oauthCfg, token, app.cfg.Notifications.Sender)
	if err != nil {
		return err
	}

	app.notifier = client
	app.logger.Debug("Gmail notifier initialized successfully")
	return nil
}

// lookupEmployee resolves a short identifier to an employee via the directory
func lookupEmployee(shortID string) (*db.Employee, error) {
	employees, err := app.database.GetEmployees(app.ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list employees: %w", err)
	}
	employee, ok := identity.EmployeeForShortID(shortID, employees)
	if !ok {
		return nil, fmt.Errorf("no employee with short id %q", shortID)
	}
	return employee, nil
}

// defaultActor picks the acting employee for management commands: the first
// manager in the directory, or the first employee if there are no managers.
func defaultActor() (*db.Employee, error) {
	employees, err := app.database.GetEmployees(app.ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list employees: %w", err)
	}
	if len(employees) == 0 {
		return nil, fmt.Errorf("employee directory is empty")
	}
	for i := range employees {
		if employees[i].Role == db.RoleManager {
			return &employees[i], nil
		}
	}
	return &employees[0], nil
}

func servicePatterns() []services.ShiftPattern {
	if len(app.cfg.ShiftPatterns) == 0 {
		return services.DefaultPatterns()
	}
	patterns := make([]services.ShiftPattern, 0, len(app.cfg.ShiftPatterns))
	for _, p := range app.cfg.ShiftPatterns {
		patterns = append(patterns, services.ShiftPattern{
			Type:  db.ShiftType(p.Type),
			RRule: p.RRule,
		})
	}
	return patterns
}

func parseDate(value string) (time.Time, error) {
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (expected YYYY-MM-DD): %w", value, err)
	}
	return t, nil
}

func printShift(s db.Shift) {
	fmt.Printf("  %s  %s  %-9s %s-%s  %s (%s)\n",
		s.ID, s.Date, s.Type, s.StartTime, s.EndTime, s.OwnerDisplayName, s.OwnerShortID)
}

func printSwap(r db.SwapRequest) {
	shiftInfo := "shift details unavailable"
	if r.Shift != nil {
		shiftInfo = fmt.Sprintf("%s shift on %s", r.Shift.Type, r.Shift.Date)
	}
	fmt.Printf("  %s  [%s]  %s -> %s  %s\n", r.ID, r.Status, r.FromShortID, r.ToShortID, shiftInfo)
}

// Command definitions

func addEmployeeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "addEmployee <display_name> <role> [email]",
		Short: "Add an employee to the directory",
		Args:  cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			role := db.Role(args[1])
			if role != db.RoleEmployee && role != db.RoleManager {
				return fmt.Errorf("role must be %q or %q", db.RoleEmployee, db.RoleManager)
			}
			email := ""
			if len(args) > 2 {
				email = args[2]
			}

			shortID, err := identity.ShortID(name)
			if err != nil {
				return err
			}
			if existing, err := lookupEmployee(shortID); err == nil {
				return fmt.Errorf("short id %q already taken by %s", shortID, existing.DisplayName)
			}

			employee := &db.Employee{DisplayName: name, Role: role, Email: email}
			if err := app.database.InsertEmployee(app.ctx, employee); err != nil {
				return err
			}

			fmt.Printf("\n✓ Employee added: %s (short id: %s)\n", name, shortID)
			return nil
		},
	}
}

func listEmployeesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "listEmployees",
		Short: "List all employees in the directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			employees, err := app.database.GetEmployees(app.ctx)
			if err != nil {
				return err
			}

			fmt.Printf("\nFound %d employees:\n\n", len(employees))
			for _, e := range employees {
				shortID, err := identity.ShortID(e.DisplayName)
				if err != nil {
					shortID = "?"
				}
				fmt.Printf("- %s (%s) - %s - %s\n", e.DisplayName, shortID, e.Role, e.Email)
			}
			return nil
		},
	}
}

func createShiftCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "createShift <owner_short_id> <date> <type>",
		Short: "Assign a shift to an employee (date YYYY-MM-DD, type day|afternoon|night)",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			owner, err := lookupEmployee(args[0])
			if err != nil {
				return err
			}

			shift, err := services.CreateShift(app.ctx, app.database, app.logger, *owner, *owner, args[1], db.ShiftType(args[2]))
			if err != nil {
				return err
			}

			fmt.Printf("\n✓ Shift created!\n\n")
			printShift(*shift)
			return nil
		},
	}
}

func listShiftsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "listShifts [owner_short_id]",
		Short: "List shifts, date ascending (all, or one employee's)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var shifts []db.Shift
			var err error
			if len(args) > 0 {
				shifts, err = app.database.GetShiftsByOwner(app.ctx, args[0])
			} else {
				shifts, err = app.database.GetShifts(app.ctx)
			}
			if err != nil {
				return err
			}

			fmt.Printf("\nFound %d shifts:\n\n", len(shifts))
			for _, s := range shifts {
				printShift(s)
			}
			return nil
		},
	}
}

func moveShiftCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "moveShift <shift_id> <new_date>",
		Short: "Move a shift to a different date",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			actor, err := defaultActor()
			if err != nil {
				return err
			}

			shift, err := services.MoveShift(app.ctx, app.database, app.logger, *actor, args[0], args[1])
			if err != nil {
				return err
			}

			fmt.Printf("\n✓ Shift moved!\n\n")
			printShift(*shift)
			return nil
		},
	}
}

func deleteShiftCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "deleteShift <shift_id>",
		Short: "Delete a shift",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			actor, err := defaultActor()
			if err != nil {
				return err
			}

			if err := services.DeleteShift(app.ctx, app.database, app.logger, *actor, args[0]); err != nil {
				return err
			}

			fmt.Printf("\n✓ Shift deleted.\n")
			return nil
		},
	}
}

func generateShiftsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generateShifts <start_date> <end_date>",
		Short: "Generate shifts over a date range by uniform random assignment",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			seed, _ := cmd.Flags().GetString("seed")

			start, err := parseDate(args[0])
			if err != nil {
				return err
			}
			end, err := parseDate(args[1])
			if err != nil {
				return err
			}

			actor, err := defaultActor()
			if err != nil {
				return err
			}
			employees, err := app.database.GetEmployees(app.ctx)
			if err != nil {
				return err
			}

			result, err := services.GenerateShifts(app.ctx, app.database, app.logger, *actor, employees, servicePatterns(), start, end, seed)
			if err != nil {
				return err
			}

			fmt.Printf("\n✓ Generated %d shifts", len(result.Created))
			if len(result.Skipped) > 0 {
				fmt.Printf(" (%d slots skipped: everyone already scheduled)", len(result.Skipped))
			}
			fmt.Printf("\n\n")
			for _, s := range result.Created {
				printShift(s)
			}
			return nil
		},
	}

	cmd.Flags().String("seed", "", "Seed for reproducible random assignment")

	return cmd
}

func requestSwapCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "requestSwap <from_short_id> <to_short_id> <shift_id>",
		Short: "Ask another employee to take one of your shifts",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			from, err := lookupEmployee(args[0])
			if err != nil {
				return err
			}
			to, err := lookupEmployee(args[1])
			if err != nil {
				return err
			}

			request, err := services.RequestSwap(app.ctx, app.database, app.logger, app.notifier, *from, *to, args[2])
			if err != nil {
				return err
			}

			fmt.Printf("\n✓ Swap request created!\n\n")
			printSwap(*request)
			return nil
		},
	}
}

func respondSwapCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "respondSwap <request_id> <accept|decline> <responder_short_id>",
		Short: "Accept or decline a swap request addressed to you",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			var accept bool
			switch args[1] {
			case "accept":
				accept = true
			case "decline":
				accept = false
			default:
				return fmt.Errorf("response must be \"accept\" or \"decline\", got %q", args[1])
			}

			responder, err := lookupEmployee(args[2])
			if err != nil {
				return err
			}

			request, err := services.RespondToSwap(app.ctx, app.database, app.logger, args[0], accept, *responder)
			if err != nil {
				return err
			}

			fmt.Printf("\n✓ Request %s.\n\n", request.Status)
			printSwap(*request)
			return nil
		},
	}
}

func listSwapsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "listSwaps [recipient_short_id]",
		Short: "List swap requests (all, or one employee's inbox)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			requests, err := app.database.GetSwapRequests(app.ctx)
			if err != nil {
				return err
			}

			if len(args) > 0 {
				filtered := requests[:0]
				for _, r := range requests {
					if r.ToShortID == args[0] {
						filtered = append(filtered, r)
					}
				}
				requests = filtered
			}

			fmt.Printf("\nFound %d swap requests:\n\n", len(requests))
			for _, r := range requests {
				printSwap(r)
			}
			return nil
		},
	}
}

func watchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch <short_id>",
		Short: "Live view of all shifts and the employee's swap inbox (Ctrl+C to stop)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			shortID := args[0]

			cancelShifts, err := app.database.SubscribeShifts(app.ctx, func(shifts []db.Shift) {
				fmt.Printf("\n--- shifts (%d) ---\n", len(shifts))
				for _, s := range shifts {
					printShift(s)
				}
			})
			if err != nil {
				return err
			}
			defer cancelShifts()

			cancelInbox, err := app.database.SubscribeInbox(app.ctx, shortID, func(requests []db.SwapRequest) {
				fmt.Printf("\n--- inbox for %s (%d) ---\n", shortID, len(requests))
				for _, r := range requests {
					printSwap(r)
				}
			})
			if err != nil {
				return err
			}
			defer cancelInbox()

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
			<-sigCh
			fmt.Println("\nStopping watch.")
			return nil
		},
	}
}

func activityCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "activity",
		Short: "Show the activity ledger, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			entries, err := app.database.GetActivities(app.ctx)
			if err != nil {
				return err
			}

			fmt.Printf("\n%d ledger entries:\n\n", len(entries))
			for _, e := range entries {
				fmt.Printf("  %s  [%s]  %s (by %s)\n", e.Timestamp, e.Kind, e.Description, e.ActorDisplayName)
			}
			return nil
		},
	}
}

func checkCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Run the read-only consistency check across all collections",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			report, err := services.CheckConsistency(app.ctx, app.database, app.logger)
			if err != nil {
				return err
			}

			fmt.Printf("\nChecked %d employees, %d shifts, %d swap requests.\n\n",
				report.EmployeeCount, report.ShiftCount, report.SwapCount)

			if len(report.Warnings) == 0 {
				fmt.Println("✓ No consistency warnings.")
				return nil
			}

			fmt.Printf("%d warnings:\n\n", len(report.Warnings))
			for _, w := range report.Warnings {
				fmt.Printf("  [%s] %s\n", w.Kind, w.Detail)
			}
			return nil
		},
	}
}

func interactiveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "interactive",
		Short: "Start an interactive session (initialize once, run multiple commands)",
		Long: `Start an interactive session where you can run multiple commands without
re-initializing the store. The session keeps running until you type 'exit' or 'quit'.

Type 'help' to see available commands.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Println("\nStarting interactive session...")
			fmt.Println("Type 'help' for available commands, 'exit' or 'quit' to leave")

			// Get all sibling commands (excluding interactive itself)
			rootCmd := cmd.Parent()
			commands := make(map[string]*cobra.Command)
			for _, subCmd := range rootCmd.Commands() {
				if subCmd.Name() != "interactive" && subCmd.Name() != "completion" && subCmd.Name() != "help" {
					commands[subCmd.Name()] = subCmd
				}
			}

			scanner := bufio.NewScanner(os.Stdin)

			for {
				fmt.Print("> ")

				if !scanner.Scan() {
					break
				}

				line := strings.TrimSpace(scanner.Text())
				if line == "" {
					continue
				}

				parts := strings.Fields(line)
				cmdName := parts[0]
				cmdArgs := parts[1:]

				if cmdName == "exit" || cmdName == "quit" {
					fmt.Println("Goodbye!")
					return nil
				}

				if cmdName == "help" {
					printInteractiveHelp(commands)
					continue
				}

				targetCmd, exists := commands[cmdName]
				if !exists {
					fmt.Printf("Unknown command: %s (type 'help' for available commands)\n\n", cmdName)
					continue
				}

				// Reset command flags and args
				targetCmd.Flags().VisitAll(func(flag *pflag.Flag) {
					flag.Changed = false
					flag.Value.Set(flag.DefValue)
				})

				// Execute the command's RunE directly, bypassing the full
				// Execute() flow so PersistentPreRunE doesn't re-run initApp
				if err := targetCmd.ParseFlags(cmdArgs); err != nil {
					fmt.Printf("Error parsing flags: %v\n\n", err)
					continue
				}

				cmdArgs = targetCmd.Flags().Args()

				if err := targetCmd.Args(targetCmd, cmdArgs); err != nil {
					fmt.Printf("Error: %v\n\n", err)
					continue
				}

				if targetCmd.RunE != nil {
					if err := targetCmd.RunE(targetCmd, cmdArgs); err != nil {
						fmt.Printf("Error: %v\n\n", err)
					}
				} else if targetCmd.Run != nil {
					targetCmd.Run(targetCmd, cmdArgs)
				}
			}

			if err := scanner.Err(); err != nil {
				return fmt.Errorf("error reading input: %w", err)
			}

			return nil
		},
	}

	return cmd
}

func printInteractiveHelp(commands map[string]*cobra.Command) {
	fmt.Println("\nAvailable commands:")

	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}

	for _, name := range names {
		cmd := commands[name]
		fmt.Printf("  %-50s %s\n", cmd.Use, cmd.Short)
	}

	fmt.Println("\n  help                           Show this help message")
	fmt.Println("  exit, quit                     Exit the interactive session")
}
