// Package keyboard reads the PicoCalc keyboard controller over I²C.
//
// The controller queues key transitions. Each read returns one 16-bit status
// word: the high byte is the transition (1 press, 2 repeat, 3 release) and
// the low byte is the scancode. A zero word means the queue is empty.
//
// # Reading keys
//
//	bus, _ := i2creg.Open("")
//	kb, _ := keyboard.New(bus, nil)
//	for ev, err := range kb.Events(ctx, keyboard.DefaultPeriod) {
//		if err != nil {
//			continue
//		}
//		fmt.Println(ev)
//	}
//
// # Modifiers
//
// Ctrl is tracked inside Dev. While it is held, lower case letters are
// reported as the control codes 1 to 26, so Ctrl+C arrives as Key(3). The
// Ctrl transitions themselves are consumed unless Opts.ReportModifiers is
// set. Two firmware revisions use different Ctrl status words and both are
// accepted.
//
// # Errors
//
// Bus failures are returned as *TransportError. Words with an unknown
// transition byte never fail a read: a printable scancode is delivered as a
// press and anything else is dropped, both with a warning on the logger.
package keyboard
