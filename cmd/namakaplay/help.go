package main

import (
	"fmt"

	"github.com/fatih/color"
)

const helpString = `Video playback engine for connected devices

Usage: namakaplay [OPTION]... URL

Playback:
  -a, --autoplay         Start playback immediately (default: enabled)
  -p, --port=NUM         HTTP port for the control interface (default: 8000)

Miscellaneous:
  -h, --help             Prints this help message and exits
  -v, --version          Prints version information and exits

The URL names the media to play, e.g. video.mp4 or file:video.mp4.

Please report bugs to: aloha@lanikailabs.com`

// Help information is printed and program exits
func help() {
	r := color.New(color.FgRed)
	y := color.New(color.FgYellow)
	b := color.New(color.FgCyan)

	//  _ __    __ _  _ __ ___    __ _ | | __ __ _
	// | '_ \  / _` || '_ ` _ \  / _` || |/ // _` |
	// | | | || (_| || | | | | || (_| ||   <| (_| |
	// |_| |_| \__,_||_| |_| |_| \__,_||_|\_\\__,_|

	// Line 1
	r.Printf("  _ __   ")
	y.Printf(" __ _ ")
	b.Printf(" _ __ ___   ")
	y.Printf(" __ _ ")
	r.Printf("| | __")
	y.Println(" __ _ ")

	// Line 2
	r.Printf(" | '_ \\  ")
	y.Printf("/ _` |")
	b.Printf("| '_ ` _ \\  ")
	y.Printf("/ _` |")
	r.Printf("| |/ /")
	y.Println("/ _` |")

	// Line 3
	r.Printf(" | | | |")
	y.Printf("| (_| |")
	b.Printf("| | | | | |")
	y.Printf("| (_| |")
	r.Printf("|   <")
	y.Println("| (_| |")

	// Line 4
	r.Printf(" |_| |_|")
	y.Printf(" \\__,_|")
	b.Printf("|_| |_| |_|")
	y.Printf(" \\__,_|")
	r.Printf("|_|\\_\\")
	y.Println("\\__,_|")

	fmt.Println(helpString)
}
