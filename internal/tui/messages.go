package tui

// downloadStartMsg resets the bar for a (re)started transfer.
type downloadStartMsg struct {
	Name  string
	Total int64
}

// downloadAddMsg advances the bar by N bytes.
type downloadAddMsg struct {
	N int64
}

// downloadDoneMsg signals that the transfer finished; the program quits.
type downloadDoneMsg struct {
	Err error
}
