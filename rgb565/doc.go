// Package rgb565 provides the 16-bit colour format used by ILI9488 class LCD
// controllers when driven in 16 bits per pixel mode.
//
// Each pixel is 5 bits of red, 6 bits of green and 5 bits of blue packed in a
// uint16 and sent most significant byte first over the wire.
//
// Memory layout example for a 2-pixel row:
//
//	Pixels: 0       1
//	Values: 0xF800  0x07FF
//	Bytes:  F8 00   07 FF
//
// This package provides:
//
// - Color: a colour type holding a packed RGB565 value
// - Model: a color model converting standard Go colours to Color
// - Image: an image.Image / draw.Image stored in panel byte order
// - a small fixed palette used by the terminal
//
// Example usage:
//
//	img := rgb565.NewImage(image.Rect(0, 0, 320, 16))
//	img.SetRGB565(10, 4, rgb565.Cyan)
//	dev.WritePixels(img.Pix)
package rgb565
