package utils

import (
	"testing"

	"github.com/sirupsen/logrus"
)

func TestSetupLoggingParsesLevel(t *testing.T) {
	logger := SetupLogging("debug")
	if logger.Level != logrus.DebugLevel {
		t.Errorf("level = %v, want debug", logger.Level)
	}
}

func TestSetupLoggingInvalidLevelFallsBack(t *testing.T) {
	logger := SetupLogging("chatty")
	if logger.Level != logrus.InfoLevel {
		t.Errorf("level = %v, want info fallback", logger.Level)
	}
}

func TestGetEnvInt(t *testing.T) {
	t.Setenv("SEEDGRAPH_TEST_INT", "42")
	if got := GetEnvInt("SEEDGRAPH_TEST_INT", 7); got != 42 {
		t.Errorf("GetEnvInt = %d, want 42", got)
	}

	t.Setenv("SEEDGRAPH_TEST_INT", "not-a-number")
	if got := GetEnvInt("SEEDGRAPH_TEST_INT", 7); got != 7 {
		t.Errorf("GetEnvInt with bad value = %d, want default 7", got)
	}

	if got := GetEnvInt("SEEDGRAPH_TEST_MISSING", 7); got != 7 {
		t.Errorf("GetEnvInt with missing var = %d, want default 7", got)
	}
}

func TestValidateConnectionParams(t *testing.T) {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)

	if !ValidateConnectionParams("localhost", "root", "secret", "testdb", "3306", logger) {
		t.Error("valid parameters rejected")
	}
	if ValidateConnectionParams("", "root", "secret", "testdb", "3306", logger) {
		t.Error("missing host accepted")
	}
	if ValidateConnectionParams("localhost", "root", "secret", "", "3306", logger) {
		t.Error("missing database accepted")
	}
	if ValidateConnectionParams("localhost", "root", "secret", "testdb", "abc", logger) {
		t.Error("non-numeric port accepted")
	}
	if !ValidateConnectionParams("localhost", "root", "", "testdb", "3306", logger) {
		t.Error("empty password should be allowed")
	}
}
