package tui

import (
	"context"
	"errors"

	"chatwatch/internal/message"

	tea "github.com/charmbracelet/bubbletea"
)

// Result 返回 TUI 运行后的必要信息。
type Result struct {
	// Messages 是退出时列表中保留的消息。
	Messages []message.Message
	// CloseErr 是卸载时消息源 Close 返回的错误。
	CloseErr error
}

// Run 挂载消息源并运行 Bubble Tea 程序；程序退出后卸载消息源。
func Run(ctx context.Context, opts Options) (Result, error) {
	m := New(opts)
	if err := m.Start(ctx); err != nil {
		m.feed.Close()
		return Result{}, err
	}

	programOptions := []tea.ProgramOption{tea.WithContext(ctx)}
	if opts.AltScreen {
		programOptions = append(programOptions, tea.WithAltScreen(), tea.WithMouseCellMotion())
	}
	if opts.InputTTY {
		programOptions = append(programOptions, tea.WithInputTTY())
	}
	program := tea.NewProgram(m, programOptions...)
	final, runErr := program.Run()

	res := Result{CloseErr: m.Stop(), Messages: m.Messages()}
	if runErr != nil && !errors.Is(runErr, tea.ErrProgramKilled) {
		return res, runErr
	}
	if _, ok := final.(*Model); !ok && runErr == nil {
		return res, errors.New("unexpected tui model")
	}
	return res, nil
}
