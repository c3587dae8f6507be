// Command atsdemo exercises the Audio Temporal Stretcher against a
// real sound card: a single portaudio duplex callback pushes captured
// frames in and then pops stretched frames out to playback, demonstrating the
// producer-pushes-at-inRate / consumer-pops-at-outRate topology the
// core is built around.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gordonklaus/portaudio"
	"github.com/spf13/pflag"

	"github.com/dickinsaudio/ats-go"
)

type cliFlags struct {
	configPath  string
	channels    int
	inRate      float64
	outRate     float64
	interp      string
	biquad      bool
	biquad2     bool
	fir2x       bool
	trackingOff bool
	listDevices bool
	traceEvery  int
	version     bool
}

func parseFlags() cliFlags {
	var f cliFlags
	pflag.StringVarP(&f.configPath, "config", "c", "", "path to an ats.yaml profile")
	pflag.IntVar(&f.channels, "channels", 0, "channel count (overrides config file)")
	pflag.Float64Var(&f.inRate, "in-rate", 0, "nominal input sample rate, Hz")
	pflag.Float64Var(&f.outRate, "out-rate", 0, "nominal output sample rate, Hz")
	pflag.StringVar(&f.interp, "interp", "", "interpolation order: hold|linear|spline3|spline5")
	pflag.BoolVar(&f.biquad, "biquad", false, "enable 2nd order input lowpass")
	pflag.BoolVar(&f.biquad2, "biquad2", false, "enable 4th order input lowpass")
	pflag.BoolVar(&f.fir2x, "fir2x", false, "enable 2x polyphase oversampling")
	pflag.BoolVar(&f.trackingOff, "tracking-off", false, "disable the PI tracker (fixed ratio)")
	pflag.BoolVar(&f.listDevices, "list-devices", false, "list portaudio devices and exit")
	pflag.IntVar(&f.traceEvery, "trace-every", 100, "emit a trace line every N pop calls (0 disables)")
	pflag.BoolVar(&f.version, "version", false, "print version and exit")

	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: atsdemo [flags]\n\n")
		pflag.PrintDefaults()
	}
	pflag.Parse()
	return f
}

func main() {
	flags := parseFlags()

	if flags.version {
		fmt.Println(ats.VersionFull())
		return
	}

	logger := log.NewWithOptions(os.Stderr, log.Options{ReportTimestamp: true})

	if err := portaudio.Initialize(); err != nil {
		logger.Fatal("portaudio init failed", "err", err)
	}
	defer portaudio.Terminate()

	if flags.listDevices {
		listDevices(logger)
		return
	}

	cfg := buildConfig(flags)
	engine := ats.New()
	if !engine.Config(&cfg) {
		logger.Fatal("rejected configuration", "channels", cfg.Channels, "mode", cfg.Mode)
	}
	engine.ChronoDefault(101, 0.01)
	logger.Info("configured", "channels", cfg.Channels, "inRate", cfg.InRate, "outRate", cfg.OutRate, "mode", cfg.Mode)

	if err := runDuplex(logger, engine, cfg, flags.traceEvery); err != nil {
		logger.Fatal("duplex stream failed", "err", err)
	}
}

func listDevices(logger *log.Logger) {
	devices, err := portaudio.Devices()
	if err != nil {
		logger.Fatal("enumerating devices failed", "err", err)
	}
	for i, d := range devices {
		logger.Info("device", "index", i, "name", d.Name,
			"maxInputChannels", d.MaxInputChannels, "maxOutputChannels", d.MaxOutputChannels)
	}
}

// runDuplex wires one portaudio duplex callback that pushes captured
// frames and then pops stretched frames for playback. It returns an
// error only if the stream cannot be opened or started; after that it
// blocks until the process is interrupted.
func runDuplex(logger *log.Logger, engine *ats.ATS, cfg ats.Config, traceEvery int) error {
	const framesPerBuffer = 256

	popCount := 0
	callback := func(in, out []int32) {
		engine.Push(framesPerBuffer, cfg.Channels, 1, in, 0)
		engine.PopInt32(framesPerBuffer, cfg.Channels, 1, out, 0)

		popCount++
		if traceEvery > 0 && popCount%traceEvery == 0 {
			engine.Trace(os.Stderr)
		}
	}

	stream, err := portaudio.OpenDefaultStream(
		cfg.Channels, cfg.Channels, cfg.InRate, framesPerBuffer, callback,
	)
	if err != nil {
		return fmt.Errorf("open stream: %w", err)
	}
	defer stream.Close()

	if err := stream.Start(); err != nil {
		return fmt.Errorf("start stream: %w", err)
	}
	logger.Info("stream running, press Ctrl+C to stop")

	for {
		time.Sleep(time.Second)
	}
}
