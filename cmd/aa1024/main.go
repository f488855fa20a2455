package main

import (
	"encoding/hex"
	"fmt"
	"os"
	"strconv"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/wrenware/aa1024"
)

var (
	version = "dev"
	commit  = "none"
)

var (
	configFlag string
	chipFlag   int
	addrFlag   string
	countFlag  int
	outFlag    string
	fileFlag   string
	pageFlag   string
	sectorFlag string
	allFlag    bool
	levelFlag  int
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "aa1024",
		Short: "Read, write, and erase 25AA1024 serial EEPROMs",
		Long: `aa1024 drives Microchip 25AA1024 serial EEPROMs over a shared SPI bus,
with up to four chips selected through per-chip CS/WP GPIO lines.

The bus layout (SPI port, control pins) comes from a YAML config file.`,
	}
	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "C", "aa1024.yaml", "bus config file")
	rootCmd.PersistentFlags().IntVarP(&chipFlag, "chip", "c", 0, "chip index (0-3)")

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Print the chip's STATUS register",
		RunE:  runStatus,
	}

	readCmd := &cobra.Command{
		Use:   "read",
		Short: "Read memory",
		RunE:  runRead,
	}
	readCmd.Flags().StringVarP(&addrFlag, "addr", "a", "0", "start address")
	readCmd.Flags().IntVarP(&countFlag, "count", "n", 256, "number of bytes to read")
	readCmd.Flags().StringVarP(&outFlag, "out", "o", "", "output file (default: hexdump)")

	writeCmd := &cobra.Command{
		Use:   "write",
		Short: "Write a file into memory",
		RunE:  runWrite,
	}
	writeCmd.Flags().StringVarP(&addrFlag, "addr", "a", "0", "start address")
	writeCmd.Flags().StringVarP(&fileFlag, "file", "f", "", "input file")
	writeCmd.MarkFlagRequired("file")

	eraseCmd := &cobra.Command{
		Use:   "erase",
		Short: "Erase a page, a sector, or the whole array",
		RunE:  runErase,
	}
	eraseCmd.Flags().StringVar(&pageFlag, "page", "", "erase the page containing this address")
	eraseCmd.Flags().StringVar(&sectorFlag, "sector", "", "erase the sector containing this address")
	eraseCmd.Flags().BoolVar(&allFlag, "all", false, "erase the entire array")

	protectCmd := &cobra.Command{
		Use:   "protect",
		Short: "Set the block-protection level",
		Long: `Set the nonvolatile block-protection level:
  0  entire array writable
  1  upper quarter protected
  2  upper half protected
  3  entire array protected`,
		RunE: runProtect,
	}
	protectCmd.Flags().IntVarP(&levelFlag, "level", "l", 0, "protection level (0-3)")
	protectCmd.MarkFlagRequired("level")

	wakeCmd := &cobra.Command{
		Use:   "wake",
		Short: "Release the chip from deep power-down",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withBus(func(bus *aa1024.Bus) error {
				return bus.Wake(chipFlag)
			})
		},
	}

	sleepCmd := &cobra.Command{
		Use:   "sleep",
		Short: "Put the chip into deep power-down",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withBus(func(bus *aa1024.Bus) error {
				return bus.Sleep(chipFlag)
			})
		},
	}

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Show version info",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("aa1024 %s (%s)\n", version, commit)
		},
	}

	rootCmd.AddCommand(statusCmd, readCmd, writeCmd, eraseCmd, protectCmd, wakeCmd, sleepCmd, versionCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// withBus runs fn against the configured bus, closing the port afterwards.
func withBus(fn func(*aa1024.Bus) error) error {
	cfg, err := loadConfig(configFlag)
	if err != nil {
		return err
	}
	if chipFlag < 0 || chipFlag >= len(cfg.Chips) {
		return fmt.Errorf("chip %d not in config (have %d)", chipFlag, len(cfg.Chips))
	}
	bus, port, err := openBus(cfg)
	if err != nil {
		return err
	}
	defer port.Close()
	return fn(bus)
}

func parseAddr(s string) (uint32, error) {
	v, err := strconv.ParseUint(s, 0, 32)
	if err != nil {
		return 0, fmt.Errorf("bad address %q: %w", s, err)
	}
	return uint32(v), nil
}

func runStatus(cmd *cobra.Command, args []string) error {
	return withBus(func(bus *aa1024.Bus) error {
		s, err := bus.ReadStatus(chipFlag)
		if err != nil {
			return err
		}
		if err := bus.EndTransaction(chipFlag); err != nil {
			return err
		}
		fmt.Println(s)
		fmt.Printf("block protection: %v\n", s.Level())
		return nil
	})
}

func runRead(cmd *cobra.Command, args []string) error {
	addr, err := parseAddr(addrFlag)
	if err != nil {
		return err
	}
	return withBus(func(bus *aa1024.Bus) error {
		if err := bus.Wake(chipFlag); err != nil {
			return fmt.Errorf("chip %d not responding: %w", chipFlag, err)
		}

		bar := progressbar.DefaultBytes(int64(countFlag), "reading")
		data := make([]byte, 0, countFlag)
		for remaining := countFlag; remaining > 0; {
			n := min(remaining, aa1024.PageSize)
			chunk, err := bus.Read(chipFlag, addr, n)
			if err != nil {
				return fmt.Errorf("read at 0x%06X failed: %w", addr, err)
			}
			data = append(data, chunk...)
			bar.Add(n)
			addr = (addr + uint32(n)) % aa1024.MemSize
			remaining -= n
		}
		bar.Finish()

		if outFlag == "" {
			fmt.Print(hex.Dump(data))
			return nil
		}
		return os.WriteFile(outFlag, data, 0644)
	})
}

func runWrite(cmd *cobra.Command, args []string) error {
	addr, err := parseAddr(addrFlag)
	if err != nil {
		return err
	}
	data, err := os.ReadFile(fileFlag)
	if err != nil {
		return err
	}
	return withBus(func(bus *aa1024.Bus) error {
		if err := bus.Wake(chipFlag); err != nil {
			return fmt.Errorf("chip %d not responding: %w", chipFlag, err)
		}

		bar := progressbar.DefaultBytes(int64(len(data)), "writing")
		for len(data) > 0 {
			n := min(aa1024.PageSize-int(addr%aa1024.PageSize), len(data))
			if err := bus.Write(chipFlag, addr, data[:n]); err != nil {
				return fmt.Errorf("write at 0x%06X failed: %w", addr, err)
			}
			bar.Add(n)
			addr += uint32(n)
			data = data[n:]
		}
		return bar.Finish()
	})
}

func runErase(cmd *cobra.Command, args []string) error {
	set := 0
	for _, f := range []bool{pageFlag != "", sectorFlag != "", allFlag} {
		if f {
			set++
		}
	}
	if set != 1 {
		return fmt.Errorf("need exactly one of --page, --sector, --all")
	}
	return withBus(func(bus *aa1024.Bus) error {
		if err := bus.Wake(chipFlag); err != nil {
			return fmt.Errorf("chip %d not responding: %w", chipFlag, err)
		}
		switch {
		case pageFlag != "":
			addr, err := parseAddr(pageFlag)
			if err != nil {
				return err
			}
			return bus.ErasePage(chipFlag, addr)
		case sectorFlag != "":
			addr, err := parseAddr(sectorFlag)
			if err != nil {
				return err
			}
			return bus.EraseSector(chipFlag, addr)
		default:
			return bus.EraseChip(chipFlag)
		}
	})
}

func runProtect(cmd *cobra.Command, args []string) error {
	if levelFlag < 0 || levelFlag > 3 {
		return fmt.Errorf("level %d out of range 0-3", levelFlag)
	}
	return withBus(func(bus *aa1024.Bus) error {
		s, err := bus.ReadStatus(chipFlag)
		if err != nil {
			return err
		}
		if err := bus.EndTransaction(chipFlag); err != nil {
			return err
		}
		level := aa1024.Level(levelFlag)
		if err := bus.WriteStatus(chipFlag, s.WithLevel(level)); err != nil {
			return err
		}
		fmt.Printf("block protection: %v\n", level)
		return nil
	})
}
