package main

import (
	"fmt"
	"image"
	"image/draw"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/svanichkin/wisp"
)

func main() {
	if len(os.Args) < 3 || len(os.Args) > 4 {
		fmt.Fprint(os.Stderr,
			"Encode: wisp <prev-image> <curr-image> [out.wisp]\n"+
				"Decode: wisp <prev-image> <delta.wisp> [out.png]\n")
		os.Exit(1)
	}

	prevPath := os.Args[1]
	otherPath := os.Args[2]
	base := strings.TrimSuffix(otherPath, filepath.Ext(otherPath))

	// If the second input is a .wisp delta → apply it onto the previous frame.
	if strings.ToLower(filepath.Ext(otherPath)) == ".wisp" {
		outPath := base + ".png"
		if len(os.Args) == 4 {
			outPath = os.Args[3]
		}
		if err := applyDelta(prevPath, otherPath, outPath); err != nil {
			fmt.Fprintln(os.Stderr, "decode error:", err)
			os.Exit(1)
		}
		fmt.Printf("Applied %s onto %s → %s\n", otherPath, prevPath, outPath)
		return
	}

	// Otherwise: both inputs are images → encode the delta between them.
	outPath := base + ".wisp"
	if len(os.Args) == 4 {
		outPath = os.Args[3]
	}
	if err := encodeDelta(prevPath, otherPath, outPath); err != nil {
		fmt.Fprintln(os.Stderr, "encode error:", err)
		os.Exit(1)
	}
	fmt.Printf("Encoded %s → %s delta as %s\n", prevPath, otherPath, outPath)
}

func encodeDelta(prevPath, currPath, outPath string) error {
	prev, err := loadFrame(prevPath)
	if err != nil {
		return err
	}
	curr, err := loadFrame(currPath)
	if err != nil {
		return err
	}
	if prev.Bounds() != curr.Bounds() {
		return fmt.Errorf("frame geometry mismatch: %v vs %v", prev.Bounds(), curr.Bounds())
	}

	comp, err := wisp.Compress(prev.Pix, curr.Pix)
	if err != nil {
		return err
	}
	return os.WriteFile(outPath, comp, 0o644)
}

func applyDelta(prevPath, deltaPath, outPath string) error {
	frame, err := loadFrame(prevPath)
	if err != nil {
		return err
	}
	comp, err := os.ReadFile(deltaPath)
	if err != nil {
		return err
	}

	if err := wisp.Decompress(frame.Pix, comp); err != nil {
		return err
	}

	out, err := os.Create(outPath)
	if err != nil {
		return err
	}
	defer out.Close()
	return png.Encode(out, frame)
}

// loadFrame decodes any supported image into an RGBA buffer rooted at (0,0).
func loadFrame(path string) (*image.RGBA, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, err
	}

	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	return dst, nil
}
