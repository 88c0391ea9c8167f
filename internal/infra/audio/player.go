// Package audio implements the sound, tone and alert channels of a reminder
// on top of the host's command line audio tools.
package audio

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
)

// CommandPlayer plays a sound file with an external player such as paplay.
type CommandPlayer struct {
	Command string
	File    string
}

func (p *CommandPlayer) Play(ctx context.Context) error {
	if p.Command == "" {
		return fmt.Errorf("no sound player configured")
	}
	if _, err := os.Stat(p.File); err != nil {
		return fmt.Errorf("sound file unavailable: %w", err)
	}
	return run(ctx, exec.CommandContext(ctx, p.Command, p.File), nil)
}

// TonePlayer synthesizes a short beep and pipes it as WAV to a player that
// reads stdin, e.g. "aplay -q -".
type TonePlayer struct {
	Command   string
	Args      []string
	Frequency float64
	Duration  float64 // Seconds
}

func NewTonePlayer(command string) *TonePlayer {
	return &TonePlayer{Command: command, Args: []string{"-q", "-"}, Frequency: 880, Duration: 0.6}
}

func (p *TonePlayer) Play(ctx context.Context) error {
	if p.Command == "" {
		return fmt.Errorf("no tone player configured")
	}
	var wav bytes.Buffer
	if err := WriteTone(&wav, p.Frequency, p.Duration); err != nil {
		return err
	}
	return run(ctx, exec.CommandContext(ctx, p.Command, p.Args...), &wav)
}

func run(ctx context.Context, cmd *exec.Cmd, stdin *bytes.Buffer) error {
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if stdin != nil {
		cmd.Stdin = stdin
	}
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%s failed: %w: %s", cmd.Path, err, bytes.TrimSpace(stderr.Bytes()))
	}
	return nil
}
