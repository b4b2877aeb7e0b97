package iocli

import "github.com/fatih/color"

// Цвета отключаются сами, если stdout не терминал или задан NO_COLOR.
var (
	successColor = color.New(color.FgGreen, color.Bold)
	warnColor    = color.New(color.FgYellow)
	errorColor   = color.New(color.FgRed, color.Bold)
	dimColor     = color.New(color.Faint)
)

func Success(s string) string { return successColor.Sprint(s) }

func Warn(s string) string { return warnColor.Sprint(s) }

func Error(s string) string { return errorColor.Sprint(s) }

func Dim(s string) string { return dimColor.Sprint(s) }
