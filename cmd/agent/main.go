package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strconv"

	"rideshare/internal/agent"
	"rideshare/internal/protocol"
	"rideshare/pkg/config"
)

const ServiceName = "agent"

const usage = `Usage: agent [-host HOST] COMMAND [ARGS]

Commands:
  login USERNAME PASSWORD
  login-face IMAGE_FILE
  login-bluetooth MAC
  add-face USERNAME IMAGE_FILE
  add-bluetooth USERNAME MAC
  unlock USERNAME CAR_ID
  return USERNAME CAR_ID
  setlocation CAR_ID LOCATION
`

func main() {
	host := flag.String("host", "localhost", "coordinator host")
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		os.Exit(2)
	}

	cfg := config.Load(ServiceName)

	c := agent.NewClient(cfg, *host)
	if err := c.Connect(); err != nil {
		fatal(err)
	}
	defer c.Disconnect()

	if err := run(c, args[0], args[1:]); err != nil {
		fatal(err)
	}
}

func run(c *agent.Client, command string, args []string) error {
	switch command {
	case "login":
		if len(args) != 2 {
			return fmt.Errorf("login needs USERNAME PASSWORD")
		}
		result, err := c.Login(args[0], args[1])
		if err != nil {
			return err
		}
		return printJSON(result)

	case "login-face":
		if len(args) != 1 {
			return fmt.Errorf("login-face needs IMAGE_FILE")
		}
		image, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		result, err := c.LoginWithFace(image)
		if err != nil {
			return err
		}
		if result.Username == "" {
			fmt.Println("No matching face found")
			return nil
		}
		fmt.Printf("Matched user: %s\n", result.Username)
		return nil

	case "login-bluetooth":
		if len(args) != 1 {
			return fmt.Errorf("login-bluetooth needs MAC")
		}
		result, err := c.LoginWithBluetooth(args[0])
		if err != nil {
			return err
		}
		return printJSON(result)

	case "add-face":
		if len(args) != 2 {
			return fmt.Errorf("add-face needs USERNAME IMAGE_FILE")
		}
		image, err := os.ReadFile(args[1])
		if err != nil {
			return err
		}
		if err := c.AddFace(args[0], image); err != nil {
			return err
		}
		fmt.Println("Face registered")
		return nil

	case "add-bluetooth":
		if len(args) != 2 {
			return fmt.Errorf("add-bluetooth needs USERNAME MAC")
		}
		message, err := c.AddBluetooth(args[0], args[1])
		if err != nil {
			return err
		}
		fmt.Println(message)
		return nil

	case "unlock", "return":
		if len(args) != 2 {
			return fmt.Errorf("%s needs USERNAME CAR_ID", command)
		}
		carID, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid car id %q", args[1])
		}
		method := protocol.MethodUnlock
		if command == "return" {
			method = protocol.MethodReturn
		}
		message, err := c.ChangeLockStatus(args[0], carID, method)
		if err != nil {
			return err
		}
		fmt.Println(message)
		return nil

	case "setlocation":
		if len(args) != 2 {
			return fmt.Errorf("setlocation needs CAR_ID LOCATION")
		}
		carID, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid car id %q", args[0])
		}
		message, err := c.SetLocation(carID, args[1])
		if err != nil {
			return err
		}
		fmt.Println(message)
		return nil

	default:
		flag.Usage()
		return fmt.Errorf("unknown command %q", command)
	}
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, "Error:", err)
	os.Exit(1)
}

func printJSON(v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}
