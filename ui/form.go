package ui

import (
	"fmt"

	"github.com/muesli/reflow/truncate"
)

type option struct {
	value string
	label string
}

// picker is a one-line select cycled with left and right.
type picker struct {
	title       string
	options     []option
	index       int
	placeholder string
}

// set replaces the options and selects value, or the first option when
// value isn't offered.
func (p *picker) set(options []option, value string) {
	p.options = options
	p.index = 0
	for i, o := range options {
		if o.value == value {
			p.index = i
			break
		}
	}
}

func (p picker) value() string {
	if len(p.options) == 0 {
		return ""
	}
	return p.options[p.index].value
}

func (p picker) label() string {
	if len(p.options) == 0 {
		return p.placeholder
	}
	return p.options[p.index].label
}

// move shifts the selection by delta without wrapping and reports whether
// it changed.
func (p *picker) move(delta int) bool {
	if len(p.options) == 0 {
		return false
	}
	i := max(0, min(len(p.options)-1, p.index+delta))
	if i == p.index {
		return false
	}
	p.index = i
	return true
}

func (p picker) view(focused bool, width int) string {
	label := truncate.StringWithTail(p.label(), uint(max(width-4, 1)), ellipsis) //nolint:gosec
	if !focused {
		return labelStyle.Render(p.title) + valueStyle.Render("  "+label)
	}
	left, right := " ", " "
	if p.index > 0 {
		left = "‹"
	}
	if p.index < len(p.options)-1 {
		right = "›"
	}
	return focusedLabelStyle.Render(p.title) + focusedValueStyle.Render(fmt.Sprintf("%s %s %s", left, label, right))
}

// stepper adjusts a bounded integer.
type stepper struct {
	title  string
	value  int
	lo, hi int
	step   int
	format func(int) string
}

func (s *stepper) add(n int) bool {
	v := max(s.lo, min(s.hi, s.value+n))
	if v == s.value {
		return false
	}
	s.value = v
	return true
}

func (s stepper) view(focused bool) string {
	text := s.format(s.value)
	if !focused {
		return labelStyle.Render(s.title) + valueStyle.Render("  "+text)
	}
	return focusedLabelStyle.Render(s.title) + focusedValueStyle.Render("‹ "+text+" ›")
}
