// Package ili9488 controls an ILI9488 TFT LCD controller via SPI.
//
// The ILI9488 drives panels up to 320×480. This driver runs it in 16 bits
// per pixel (RGB565) mode, as found on the PicoCalc 320×320 panel, and
// implements the display.Drawer interface from periph.io.
//
// # Hardware Connection
//
//	Display Pin → System Pin
//	GND         → GND
//	VCC         → 3.3V
//	SCK         → SPI Clock (SCLK)
//	SDI/MOSI    → SPI Data (MOSI)
//	DC          → GPIO (any available pin)
//	CS          → SPI Chip Select
//	RST         → Optional: GPIO for hardware reset
//	BL          → Optional: GPIO for the backlight (active high)
//
// # Basic Usage
//
//	host.Init()
//	p, _ := spireg.Open("")
//	dev, _ := ili9488.NewSPI(p, gpioreg.ByName("GPIO14"), &ili9488.Opts{
//		W:   320,
//		H:   320,
//		RST: gpioreg.ByName("GPIO15"),
//		BL:  gpioreg.ByName("GPIO12"),
//	})
//	defer dev.Halt()
//	dev.Fill(rgb565.Cyan)
//
// # Windowed Writes
//
// SetWindow selects a rectangle of display RAM; WritePixels then streams
// RGB565 data into it, row by row. This is what the screen compositor uses,
// one window per run of dirty text rows.
//
// # Hardware Scrolling
//
// The controller maps display RAM to the panel starting at a configurable
// line (VSCRSADD). Changing it shifts the whole picture vertically without
// rewriting any pixel:
//
//	dev.DefineScrollArea(0, 320, 0)
//	dev.SetScrollStart(16) // content moves up by 16 lines
//
// # Datasheet
//
// https://www.displayfuture.com/Display/datasheet/controller/ILI9488.pdf
package ili9488
