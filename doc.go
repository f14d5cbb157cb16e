// Package picocalc drives the ClockworkPi PicoCalc as a text terminal.
//
// The device pairs an I²C keyboard controller with a 320×320 ILI9488 panel on
// SPI. The sub-packages cover each part:
//
//   - keyboard decodes the controller's 16-bit status words into key events.
//   - screen keeps a character grid and sends only dirty rows to the panel,
//     using the panel's vertical scroll register instead of redrawing.
//   - ili9488 is the panel driver and implements screen.Framebuffer.
//   - rgb565 and font hold the colour and glyph types shared by the others.
//
// Terminal ties them together: it polls keys, echoes them to the grid, hands
// completed lines to a callback and flushes the screen on every tick.
//
// # Basic Usage
//
//	host.Init()
//	bus, _ := i2creg.Open("")
//	kb, _ := keyboard.New(bus, nil)
//
//	port, _ := spireg.Open("")
//	lcd, _ := ili9488.NewSPI(port, gpioreg.ByName("GPIO14"), nil)
//	defer lcd.Halt()
//
//	scr, _ := screen.New(lcd, font.Basic(), nil)
//	term, _ := picocalc.NewTerminal(kb, scr, &picocalc.TermOpts{
//		OnLine: func(line string) { fmt.Println(line) },
//	})
//	term.Run(ctx)
//
// See examples/picoterm for a complete program.
package picocalc
