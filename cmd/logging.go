package cmd

import (
	"os"

	"github.com/achilleasa/prism/log"
	"github.com/joho/godotenv"
	"github.com/urfave/cli"
)

var logger = log.New("prism")

// Load environment overrides from the file specified by the global env flag.
// A missing file is only an error if the flag was explicitly set.
func LoadEnv(ctx *cli.Context) error {
	envFile := ctx.GlobalString("env")
	if envFile == "" {
		return nil
	}

	if _, err := os.Stat(envFile); err != nil {
		if ctx.GlobalIsSet("env") {
			return err
		}
		return nil
	}

	return godotenv.Load(envFile)
}

func setupLogging(ctx *cli.Context) error {
	if levelName := os.Getenv("PRISM_LOG_LEVEL"); levelName != "" {
		level, err := log.ParseLevel(levelName)
		if err != nil {
			return err
		}
		log.SetLevel(level)
	}

	if ctx.GlobalBool("v") {
		log.SetLevel(log.Info)
	}

	if ctx.GlobalBool("vv") {
		log.SetLevel(log.Debug)
	}

	return nil
}
