package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/thatsimonsguy/envmon/db"
)

func main() {
	DebugCLI()
}

func DebugCLI() {
	var dbPath, command string
	flag.StringVar(&dbPath, "db", "data/envmon.db", "Path to the SQLite NVRAM database")
	flag.StringVar(&command, "cmd", "", "Command to run: show, clear")
	help := flag.Bool("help", false, "Show help")
	flag.Parse()

	if *help || command == "" {
		fmt.Println("\nUsage of envmon-debug:")
		fmt.Println("  -db string\tPath to the SQLite NVRAM database (default 'data/envmon.db')")
		fmt.Println("  -cmd string\tCommand to run: show, clear")
		fmt.Println("  -help\tShow this help message")
		os.Exit(0)
	}

	var err error
	switch command {
	case "show":
		err = db.ShowStatusCLI(dbPath, os.Stdout)
	case "clear":
		err = db.ClearStatusCLI(dbPath)
	default:
		fmt.Println("Invalid command")
		os.Exit(1)
	}

	if err != nil {
		fmt.Printf("Command %s failed: %v\n", command, err)
		os.Exit(1)
	}
	fmt.Printf("Command %s completed successfully\n", command)
}
