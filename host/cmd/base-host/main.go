package main

import (
	"bufio"
	"flag"
	"fmt"
	"io/ioutil"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/shlex"

	"rollingbase/config"
	"rollingbase/host/base"
	"rollingbase/host/serial"
)

var (
	device     = flag.String("device", "", "Serial device path (found by USB id when empty)")
	baud       = flag.Int("baud", serial.DefaultBaud, "Baud rate (ignored for USB CDC)")
	vid        = flag.Uint("vid", serial.DefaultVID, "USB vendor id used to find the controller")
	pid        = flag.Uint("pid", serial.DefaultPID, "USB product id used to find the controller")
	serialNum  = flag.String("serial", "", "USB serial number used to find the controller")
	configPath = flag.String("config", "", "Robot configuration (JSON) supplying go-to defaults")
	mission    = flag.String("mission", "", "Run a YAML mission and exit")
	timeout    = flag.Duration("timeout", 30*time.Second, "Time allowed for queued actions to finish")
)

func main() {
	flag.Parse()

	fmt.Println("Rolling Base Host")
	fmt.Println("=================")
	fmt.Println()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	path := *device
	if path == "" {
		path, err = serial.Find(uint16(*vid), uint16(*pid), *serialNum)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	}

	fmt.Printf("Connecting to controller on %s...\n", path)
	portCfg := serial.DefaultConfig(path)
	portCfg.Baud = *baud
	b, err := base.Connect(portCfg, cfg.GoTo)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer b.Close()

	fmt.Println("Connected successfully!")

	if *mission != "" {
		if err := runMission(b, *mission); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	fmt.Println("Enter commands (type 'help' for available commands, 'quit' to exit):")
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

		parts, err := shlex.Split(line)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			continue
		}
		if len(parts) == 0 {
			continue
		}

		switch parts[0] {
		case "quit", "exit", "q":
			fmt.Println("Goodbye!")
			return
		case "help", "?":
			printHelp()
		default:
			if err := runCommand(b, parts); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			}
		}
	}

	if err := scanner.Err(); err != nil {
		fmt.Fprintf(os.Stderr, "Error reading input: %v\n", err)
		os.Exit(1)
	}
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Default(), nil
	}
	data, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	return config.Load(data)
}

func runMission(b *base.Base, path string) error {
	m, err := base.LoadMission(path)
	if err != nil {
		return err
	}
	fmt.Printf("Running mission %q (%d steps)...\n", m.Name, len(m.Steps))
	if err := m.Run(b, *timeout); err != nil {
		return err
	}
	p := b.Odometry()
	fmt.Printf("Mission complete at x=%.2f y=%.2f theta=%.3f\n", p.X, p.Y, p.Theta)
	return nil
}

func runCommand(b *base.Base, parts []string) error {
	cmd, args := parts[0], parts[1:]

	switch cmd {
	case "goto", "orient":
		v, err := parseFloats(args, 2)
		if err != nil {
			return err
		}
		var opts []base.GoToOption
		for _, a := range args[2:] {
			switch a {
			case "back", "backward":
				opts = append(opts, base.Backward())
			case "now":
				opts = append(opts, base.SkipQueue())
			default:
				return fmt.Errorf("unknown option %q", a)
			}
		}
		target := base.Pose{X: v[0], Y: v[1]}
		if cmd == "goto" {
			return b.GoTo(target, opts...)
		}
		return b.OrientToPoint(target, opts...)

	case "keep":
		return b.KeepCurrentPosition()

	case "stop":
		return b.Stop()

	case "enable_pid":
		return b.EnablePID(false)

	case "disable_pid":
		return b.DisablePID(false)

	case "reset":
		return b.ResetOdometry(false)

	case "home":
		v, err := parseFloats(args, 3)
		if err != nil {
			return err
		}
		return b.SetHome(base.Pose{X: v[0], Y: v[1], Theta: v[2]}, false)

	case "pid":
		v, err := parseFloats(args, 3)
		if err != nil {
			return err
		}
		return b.SetPID(v[0], v[1], v[2], false)

	case "offset":
		v, err := parseFloats(args, 2)
		if err != nil {
			return err
		}
		b.SetPositionOffset(base.Pose{X: v[0], Y: v[1]})
		return nil

	case "servo":
		if len(args) != 2 {
			return fmt.Errorf("usage: servo <pin> <angle>")
		}
		pin, err := strconv.ParseUint(args[0], 10, 8)
		if err != nil {
			return fmt.Errorf("bad pin: %w", err)
		}
		angle, err := strconv.ParseUint(args[1], 10, 8)
		if err != nil {
			return fmt.Errorf("bad angle: %w", err)
		}
		return b.ServoGoTo(uint8(pin), uint8(angle), false)

	case "stepper":
		if len(args) != 2 {
			return fmt.Errorf("usage: stepper <pin> <steps>")
		}
		pin, err := strconv.ParseUint(args[0], 10, 8)
		if err != nil {
			return fmt.Errorf("bad pin: %w", err)
		}
		steps, err := strconv.ParseInt(args[1], 10, 32)
		if err != nil {
			return fmt.Errorf("bad steps: %w", err)
		}
		return b.StepperStep(uint8(pin), int32(steps), false)

	case "odom":
		p := b.Odometry()
		fmt.Printf("x=%.2f y=%.2f theta=%.3f (%d pending)\n", p.X, p.Y, p.Theta, b.Pending())
		return nil

	case "wait":
		return b.WaitIdle(*timeout)

	case "mission":
		if len(args) != 1 {
			return fmt.Errorf("usage: mission <file.yaml>")
		}
		return runMission(b, args[0])

	default:
		return fmt.Errorf("unknown command: %s (type 'help' for available commands)", cmd)
	}
}

func parseFloats(args []string, n int) ([]float32, error) {
	if len(args) < n {
		return nil, fmt.Errorf("expected %d numbers, got %d", n, len(args))
	}
	out := make([]float32, n)
	for i := 0; i < n; i++ {
		f, err := strconv.ParseFloat(args[i], 32)
		if err != nil {
			return nil, fmt.Errorf("bad number %q: %w", args[i], err)
		}
		out[i] = float32(f)
	}
	return out, nil
}

func printHelp() {
	fmt.Println("\nAvailable commands:")
	fmt.Println("  goto <x> <y> [back] [now]   - Drive to a point")
	fmt.Println("  orient <x> <y> [now]        - Turn to face a point")
	fmt.Println("  keep                        - Hold the current position")
	fmt.Println("  stop                        - Stop and clear the queue")
	fmt.Println("  enable_pid / disable_pid    - Toggle position hold when idle")
	fmt.Println("  reset                       - Reset odometry to the origin")
	fmt.Println("  home <x> <y> <theta>        - Overwrite the controller's pose")
	fmt.Println("  pid <kp> <ki> <kd>          - Set closed-loop gains")
	fmt.Println("  offset <x> <y>              - Offset added to every target")
	fmt.Println("  servo <pin> <angle>         - Move a servo")
	fmt.Println("  stepper <pin> <steps>       - Step an auxiliary stepper")
	fmt.Println("  odom                        - Print the last reported pose")
	fmt.Println("  wait                        - Wait for queued actions to finish")
	fmt.Println("  mission <file.yaml>         - Run a mission file")
	fmt.Println("  quit/exit/q                 - Exit the program")
	fmt.Println()
}
