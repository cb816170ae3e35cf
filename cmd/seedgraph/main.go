package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/vitebski/seedgraph/internal/analyzer"
	"github.com/vitebski/seedgraph/internal/config"
	"github.com/vitebski/seedgraph/internal/connector"
	"github.com/vitebski/seedgraph/internal/emitter"
	"github.com/vitebski/seedgraph/internal/plan"
	"github.com/vitebski/seedgraph/internal/utils"
	"github.com/vitebski/seedgraph/pkg/models"
)

func main() {
	var (
		host        string
		user        string
		password    string
		database    string
		port        string
		schemaFile  string
		planFile    string
		rootSeed    string
		autoConnect bool
		envFile       string
		logLevel      string
		outFile       string
		transactional bool
	)

	var logger *logrus.Logger
	var cfg *config.Config

	rootCmd := &cobra.Command{
		Use:   "seedgraph",
		Short: "A tool to generate relational synthetic data from a schema",
		Long: `Seedgraph

A Go tool that generates deterministic, referentially consistent synthetic
data for relational schemas. It resolves foreign key graphs recursively,
supports composable generation plans, and emits ordered SQL inserts.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logger = utils.SetupLogging(logLevel)
			utils.LoadEnvironmentVariables(envFile, logger)
			cfg = config.Load()

			if host == "" {
				host = cfg.Host
			}
			if user == "" {
				user = cfg.User
			}
			if password == "" {
				password = cfg.Password
			}
			if database == "" {
				database = cfg.Database
			}
			if port == "" {
				port = cfg.Port
			}
			if rootSeed == "" {
				rootSeed = cfg.Seed
			}
			if !cmd.Flags().Changed("auto-connect") {
				autoConnect = cfg.AutoConnect
			}
		},
	}

	rootCmd.PersistentFlags().StringVarP(&host, "host", "H", "", "MySQL host (default: localhost)")
	rootCmd.PersistentFlags().StringVarP(&user, "user", "u", "", "MySQL user (default: root)")
	rootCmd.PersistentFlags().StringVarP(&password, "password", "p", "", "MySQL password")
	rootCmd.PersistentFlags().StringVarP(&database, "database", "d", "", "MySQL database name")
	rootCmd.PersistentFlags().StringVarP(&port, "port", "P", "", "MySQL port (default: 3306)")
	rootCmd.PersistentFlags().StringVarP(&schemaFile, "schema-file", "s", "", "YAML schema file (skips database introspection)")
	rootCmd.PersistentFlags().StringVarP(&rootSeed, "seed", "S", "", "Root seed for deterministic generation")
	rootCmd.PersistentFlags().BoolVarP(&autoConnect, "auto-connect", "c", true, "Reuse existing rows for unresolved relationships")
	rootCmd.PersistentFlags().StringVarP(&envFile, "env-file", "e", ".env", "Path to .env file")
	rootCmd.PersistentFlags().StringVarP(&logLevel, "log-level", "l", "", "Log level (debug, info, warn, error)")

	// loadSchema prefers the schema file; otherwise it introspects the
	// configured database.
	loadSchema := func() (*models.Schema, *connector.DatabaseConnector, error) {
		if schemaFile != "" {
			schema, err := config.LoadSchema(schemaFile)
			return schema, nil, err
		}

		if !utils.ValidateConnectionParams(host, user, password, database, port, logger) {
			return nil, nil, fmt.Errorf("invalid connection parameters")
		}
		db := connector.NewDatabaseConnector(host, user, password, database, port, logger)
		if err := db.Connect(); err != nil {
			return nil, nil, err
		}
		schema, err := analyzer.NewSchemaAnalyzer(db, logger).Analyze()
		if err != nil {
			db.Disconnect()
			return nil, nil, err
		}
		return schema, db, nil
	}

	newEngine := func(schema *models.Schema) *plan.Engine {
		opts := []plan.Option{plan.WithAutoConnect(autoConnect), plan.WithLogger(logger)}
		if rootSeed != "" {
			opts = append(opts, plan.WithSeed(rootSeed))
		}
		return plan.NewEngine(schema, opts...)
	}

	inspectCmd := &cobra.Command{
		Use:   "inspect",
		Short: "Analyze the schema and print its tables and relationships",
		Run: func(cmd *cobra.Command, args []string) {
			schema, db, err := loadSchema()
			if err != nil {
				logger.Errorf("Failed to load schema: %v", err)
				os.Exit(1)
			}
			if db != nil {
				defer db.Disconnect()
			}
			utils.PrintSchemaReport(schema)
		},
	}

	sqlCmd := &cobra.Command{
		Use:   "sql",
		Short: "Run a plan and print the resulting SQL statements",
		Run: func(cmd *cobra.Command, args []string) {
			schema, db, err := loadSchema()
			if err != nil {
				logger.Errorf("Failed to load schema: %v", err)
				os.Exit(1)
			}
			if db != nil {
				defer db.Disconnect()
			}

			p, err := config.LoadPlan(newEngine(schema), planFile)
			if err != nil {
				logger.Errorf("Failed to load plan: %v", err)
				os.Exit(1)
			}
			st, err := p.Generate(context.Background(), nil)
			if err != nil {
				logger.Errorf("Generation failed: %v", err)
				os.Exit(1)
			}

			statements, err := emitter.New(schema, logger).ToSQL(st)
			if err != nil {
				logger.Errorf("Emission failed: %v", err)
				os.Exit(1)
			}

			output := strings.Join(statements, ";\n") + ";\n"
			if outFile != "" {
				if err := os.WriteFile(outFile, []byte(output), 0o644); err != nil {
					logger.Errorf("Failed to write %s: %v", outFile, err)
					os.Exit(1)
				}
				logger.Infof("Wrote %d statements to %s", len(statements), outFile)
			} else {
				fmt.Print(output)
			}
		},
	}
	sqlCmd.Flags().StringVarP(&planFile, "plan-file", "f", "seedgraph.yaml", "YAML plan file")
	sqlCmd.Flags().StringVarP(&outFile, "out", "o", "", "Write statements to a file instead of stdout")

	applyCmd := &cobra.Command{
		Use:   "apply",
		Short: "Run a plan and insert the generated rows into the database",
		Run: func(cmd *cobra.Command, args []string) {
			schema, db, err := loadSchema()
			if err != nil {
				logger.Errorf("Failed to load schema: %v", err)
				os.Exit(1)
			}
			if db == nil {
				// Schema came from a file; still need a live connection.
				if !utils.ValidateConnectionParams(host, user, password, database, port, logger) {
					os.Exit(1)
				}
				db = connector.NewDatabaseConnector(host, user, password, database, port, logger)
				if err := db.Connect(); err != nil {
					logger.Errorf("Failed to connect to database: %v", err)
					os.Exit(1)
				}
			}
			defer db.Disconnect()

			p, err := config.LoadPlan(newEngine(schema), planFile)
			if err != nil {
				logger.Errorf("Failed to load plan: %v", err)
				os.Exit(1)
			}
			st, err := p.Generate(context.Background(), nil)
			if err != nil {
				logger.Errorf("Generation failed: %v", err)
				os.Exit(1)
			}

			em := emitter.New(schema, logger)
			if transactional {
				statements, err := em.ToSQL(st)
				if err != nil {
					logger.Errorf("Emission failed: %v", err)
					os.Exit(1)
				}
				if err := db.ExecuteBatch(statements); err != nil {
					logger.Errorf("Insertion failed, transaction rolled back: %v", err)
					os.Exit(1)
				}
			} else {
				if err := em.Execute(db, st); err != nil {
					logger.Errorf("Insertion failed: %v", err)
					os.Exit(1)
				}
			}

			utils.PrintGenerationSummary(st)
		},
	}
	applyCmd.Flags().StringVarP(&planFile, "plan-file", "f", "seedgraph.yaml", "YAML plan file")
	applyCmd.Flags().BoolVarP(&transactional, "transaction", "t", false, "Apply all statements in a single transaction")

	rootCmd.AddCommand(inspectCmd, sqlCmd, applyCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
