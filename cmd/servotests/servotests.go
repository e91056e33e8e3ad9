package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/tigerbot-team/tigerbot/go-teleop/pkg/anglemap"
	"github.com/tigerbot-team/tigerbot/go-teleop/pkg/config"
	"github.com/tigerbot-team/tigerbot/go-teleop/pkg/pca9685"
)

func main() {
	cfgPath := flag.String("config", config.DefaultPath, "YAML settings file")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Println("Failed to load config", err)
		return
	}

	pwmController, err := pca9685.New(cfg.Servo.I2CDevice, cfg.Servo.Pulse)
	if err != nil {
		fmt.Println("Failed to open PCA9685", err)
		return
	}
	defer pwmController.Close()

	err = pwmController.Configure()
	if err != nil {
		fmt.Println("Failed to configure PCA9685", err)
		return
	}

	fmt.Println(
		`Commands:
    l <degrees>       # Move left servo
    r <degrees>       # Move right servo
    s <l|r> <stick>   # Move a servo as the stick value -128..127 would
    c                 # Both servos to centre`)
	fmt.Printf("Left:  %+v\nRight: %+v\n", cfg.Left, cfg.Right)

	channels := map[string]anglemap.Channel{"l": cfg.Left, "r": cfg.Right}
	reader := bufio.NewReader(os.Stdin)
	for {
		fmt.Print("> ")
		line, err := reader.ReadString('\n')
		if err != nil {
			fmt.Println("\nFailed to read stdin: ", err)
			return
		}

		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		switch parts[0] {
		case "c":
			err = setAngle(pwmController, cfg.Left, cfg.Left.Neutral())
			if err == nil {
				err = setAngle(pwmController, cfg.Right, cfg.Right.Neutral())
			}
		case "l", "r":
			if len(parts) < 2 {
				fmt.Println("Not enough parameters")
				continue
			}
			deg, perr := strconv.Atoi(parts[1])
			if perr != nil {
				fmt.Println("Expected int, not ", parts[1])
				continue
			}
			err = setAngle(pwmController, channels[parts[0]], deg)
		case "s":
			if len(parts) < 3 {
				fmt.Println("Not enough parameters")
				continue
			}
			ch, ok := channels[parts[1]]
			if !ok {
				fmt.Println("Expected l or r, not ", parts[1])
				continue
			}
			v, perr := strconv.ParseInt(parts[2], 10, 8)
			if perr != nil {
				fmt.Println("Expected stick value -128..127, not ", parts[2])
				continue
			}
			err = setAngle(pwmController, ch, ch.Map(int8(v)))
		default:
			fmt.Println("Unknown command", parts[0])
			continue
		}
		if err != nil {
			fmt.Println("Failed to write to PCA9685: ", err)
			return
		}
	}
}

func setAngle(pwm pca9685.Interface, ch anglemap.Channel, degrees int) error {
	fmt.Printf("Setting %s servo (port %d) to %d degrees\n", ch.Name, ch.Port, degrees)
	return pwm.SetAngle(ch.Port, degrees)
}
