// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package main

import (
	"flag"
	"log"
	"os"

	"github.com/ezrec/ls8/cpu"
	"github.com/ezrec/ls8/emulator"
	"github.com/ezrec/ls8/io"
)

func main() {
	var compile string
	var save bool
	var output string
	var verbose bool
	var strict bool
	var trace bool

	flag.StringVar(&compile, "c", "", ".asm file to compile")
	flag.BoolVar(&save, "s", false, "Save image to output, do not execute")
	flag.StringVar(&output, "o", "-", "Output")
	flag.BoolVar(&verbose, "v", false, "Verbose mode")
	flag.BoolVar(&strict, "strict", false, "Unknown opcodes are fatal")
	flag.BoolVar(&trace, "trace", false, "Trace each instruction")

	flag.Parse()

	emu := emulator.NewEmulator(cpu.Config{Strict: strict, Verbose: verbose})

	switch {
	case len(compile) != 0 && flag.NArg() == 0:
		// Compile a new instruction stream.
		inf, err := os.Open(compile)
		if err != nil {
			log.Fatalf("%v: %v", compile, err)
		}
		defer inf.Close()

		err = emu.Assemble(inf)
		if err != nil {
			log.Fatalf("%v: %v", compile, err)
		}
	case len(compile) == 0 && flag.NArg() == 1:
		image := flag.Arg(0)
		inf, err := os.Open(image)
		if err != nil {
			log.Fatalf("%v: %v", image, err)
		}
		defer inf.Close()

		data, err := io.ReadImage(inf)
		if err != nil {
			log.Fatalf("%v: %v", image, err)
		}
		emu.LoadImage(data)
	default:
		log.Fatalf("usage: %v [options] (-c file.asm | file.ls8)", os.Args[0])
	}

	ouf := os.Stdout
	if output != "-" {
		var err error
		ouf, err = os.Create(output)
		if err != nil {
			log.Fatalf("%v: %v", output, err)
		}
		defer ouf.Close()
	}

	if save {
		var comments []string
		if emu.Program != nil {
			comments = emu.Program.Comments()
		}
		err := io.WriteImage(ouf, emu.Image(), comments)
		if err != nil {
			log.Fatalf("%v: %v", output, err)
		}
		return
	}

	emu.Tape.Output = ouf

	err := emu.Reset()
	if err != nil {
		log.Fatal(err)
	}

	for done := false; !done; {
		if trace {
			log.Printf("%v | %v", emu.Cpu.Trace(), emu.Instruction())
		}
		done, err = emu.Tick()
		if err != nil {
			log.Fatal(err)
		}
	}

	if emu.Cpu.HaltReason != nil {
		log.Printf("halted: %v", emu.Cpu.HaltReason)
	}
}
