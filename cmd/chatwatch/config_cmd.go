package main

import (
	"fmt"
	"io"

	"chatwatch/internal/config"
)

// configMain prints the effective config as TOML, or saves it with --write.
func configMain(root rootArgs, args []string, out io.Writer) error {
	fs, sa := newSourceFlagSet("config")
	fs.SetOutput(io.Discard)
	write := fs.Bool("write", false, "Save the effective config to the config path")
	if err := fs.Parse(args); err != nil {
		return err
	}
	cfg, err := sa.load(root, fs)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if *write {
		if err := config.Save(cfg.Path, cfg); err != nil {
			return fmt.Errorf("save config: %w", err)
		}
		_, err := fmt.Fprintf(out, "wrote %s\n", cfg.Path)
		return err
	}
	data, err := config.Marshal(cfg)
	if err != nil {
		return err
	}
	_, err = out.Write(data)
	return err
}
