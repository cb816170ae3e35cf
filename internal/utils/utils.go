package utils

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/vitebski/seedgraph/internal/store"
	"github.com/vitebski/seedgraph/pkg/models"
)

// SetupLogging configures the logging system
func SetupLogging(logLevel string) *logrus.Logger {
	logger := logrus.New()

	// Get log level from environment variable or parameter
	levelStr := logLevel
	if levelStr == "" {
		levelStr = os.Getenv("SEEDGRAPH_LOG_LEVEL")
		if levelStr == "" {
			levelStr = "info"
		}
	}

	level, err := logrus.ParseLevel(levelStr)
	if err != nil {
		level = logrus.InfoLevel
	}

	logger.SetLevel(level)
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})
	logger.SetOutput(os.Stdout)

	return logger
}

// LoadEnvironmentVariables loads environment variables from .env file
func LoadEnvironmentVariables(envFile string, logger *logrus.Logger) bool {
	if _, err := os.Stat(envFile); os.IsNotExist(err) {
		sampleEnvFile := envFile + ".sample"
		if _, err := os.Stat(sampleEnvFile); err == nil {
			logger.Infof("No %s file found, but %s exists. Consider copying %s to %s and updating it.",
				envFile, sampleEnvFile, sampleEnvFile, envFile)
		}
	}

	if _, err := os.Stat(envFile); err == nil {
		if err := godotenv.Load(envFile); err != nil {
			logger.Warningf("Error loading %s file: %v", envFile, err)
		} else {
			logger.Infof("Loaded environment variables from %s", envFile)
		}
	} else {
		logger.Infof("No %s file found, using existing environment variables", envFile)
	}

	requiredVars := []string{"MYSQL_HOST", "MYSQL_USER", "MYSQL_PASSWORD", "MYSQL_DATABASE"}
	var missingVars []string

	for _, v := range requiredVars {
		if os.Getenv(v) == "" {
			missingVars = append(missingVars, v)
		}
	}

	if len(missingVars) > 0 {
		logger.Warningf("Missing required environment variables: %s", strings.Join(missingVars, ", "))
		logger.Info("These can be provided via command line arguments, environment variables, or a .env file")
		return false
	}

	return true
}

// GetEnvInt gets an integer value from environment variable
func GetEnvInt(varName string, defaultValue int) int {
	value := os.Getenv(varName)
	if value == "" {
		return defaultValue
	}

	intValue, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}

	return intValue
}

// PrintGenerationSummary prints per-table row counts for a generated store.
// External rows pre-seeded by the caller are reported separately since they
// are never emitted.
func PrintGenerationSummary(st *store.Store) {
	header := color.New(color.Bold, color.FgCyan)
	generated := color.New(color.FgGreen)
	externalC := color.New(color.FgYellow)

	fmt.Println("\n" + strings.Repeat("=", 50))
	header.Println("DATA GENERATION SUMMARY")
	fmt.Println(strings.Repeat("=", 50))

	totalGenerated := 0
	totalExternal := 0
	for _, table := range st.Tables() {
		n := st.Len(table)
		external := 0
		for i := 0; i < n; i++ {
			if st.IsExternal(table, i) {
				external++
			}
		}
		totalGenerated += n - external
		totalExternal += external

		line := fmt.Sprintf("  %-30s %s", table, generated.Sprintf("%d rows", n-external))
		if external > 0 {
			line += externalC.Sprintf(" (+%d external)", external)
		}
		fmt.Println(line)
	}

	fmt.Println(strings.Repeat("-", 50))
	fmt.Printf("Total tables: %d\n", len(st.Tables()))
	fmt.Printf("Total rows generated: %d\n", totalGenerated)
	if totalExternal > 0 {
		fmt.Printf("Pre-existing rows referenced: %d\n", totalExternal)
	}
	fmt.Println(strings.Repeat("=", 50))
}

// PrintSchemaReport prints the tables and relationships of an analyzed schema.
func PrintSchemaReport(schema *models.Schema) {
	header := color.New(color.Bold, color.FgCyan)
	relC := color.New(color.FgMagenta)

	fmt.Println("\n" + strings.Repeat("=", 60))
	header.Println("SCHEMA REPORT")
	fmt.Println(strings.Repeat("=", 60))

	tables := schema.Tables()
	fmt.Printf("Tables: %d\n\n", len(tables))

	for _, tbl := range tables {
		fmt.Printf("%s (%d columns)\n", tbl.Name, len(tbl.Columns))
		for _, rel := range tbl.Parents {
			kind := "required"
			if rel.Nullable {
				kind = "optional"
			}
			relC.Printf("  -> %s via %s (%s)\n", rel.Target, strings.Join(rel.Columns, ", "), kind)
		}
		for _, child := range tbl.Children {
			relC.Printf("  <- %s (%s)\n", child.Target, child.Name)
		}
	}

	fmt.Println(strings.Repeat("=", 60))
}

// ValidateConnectionParams validates database connection parameters
func ValidateConnectionParams(host, user, password, database, port string, logger *logrus.Logger) bool {
	if host == "" {
		logger.Error("Database host is required")
		return false
	}

	if user == "" {
		logger.Error("Database user is required")
		return false
	}

	if password == "" { // Empty password is allowed
		logger.Warning("Database password is empty")
	}

	if database == "" {
		logger.Error("Database name is required")
		return false
	}

	if _, err := strconv.Atoi(port); err != nil {
		logger.Errorf("Invalid port number: %s", port)
		return false
	}

	return true
}
