package main

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"

	"github.com/facebookincubator/go-belt"
	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/facebookincubator/go-belt/tool/logger/implementation/logrus"
	"github.com/spf13/pflag"
	"github.com/xaionaro-go/observability"

	_ "github.com/xaionaro-go/audio/pkg/audio/backends/pulseaudio"

	"github.com/rivavoice/rivavoice/pkg/capture"
	"github.com/rivavoice/rivavoice/pkg/config"
	"github.com/rivavoice/rivavoice/pkg/pcm"
	"github.com/rivavoice/rivavoice/pkg/session"
	"github.com/rivavoice/rivavoice/pkg/transcribe"
)

func syntaxExit(message string) {
	fmt.Fprintf(os.Stderr, "syntax error: %s\n", message)
	pflag.Usage()
	os.Exit(2)
}

func main() {
	loggerLevel := logger.LevelWarning
	pflag.Var(&loggerLevel, "log-level", "Log level")
	configFlag := pflag.String("config", "", "path to the YAML config file")
	inputFlag := pflag.String("input", "mic", "audio input: 'mic', '-' (raw PCM on stdin) or a WAV file path")
	languageFlag := pflag.String("language", "", "language tag, e.g. en-US (default: auto-detect)")
	outputFlag := pflag.String("output", "", "write the final transcript to this file")
	netPprofAddr := pflag.String("net-pprof-addr", "", "")
	pflag.Parse()
	if pflag.NArg() != 0 {
		syntaxExit("expected no arguments")
	}

	l := logrus.Default().WithLevel(loggerLevel)
	ctx := logger.CtxWithLogger(context.Background(), l)
	logger.Default = func() logger.Logger {
		return l
	}
	defer belt.Flush(ctx)

	if *netPprofAddr != "" {
		observability.Go(ctx, func() { l.Error(http.ListenAndServe(*netPprofAddr, nil)) })
	}

	cfg, err := config.Load(*configFlag)
	if err != nil {
		logger.Fatal(ctx, err)
	}
	if *languageFlag != "" {
		cfg.Transcription.Language = *languageFlag
	}
	if cfg.Transcription.APIKey == "" {
		logger.Fatal(ctx, "an API key is required: set OPENAI_API_KEY or transcription.api_key in the config")
	}

	source, err := openSource(ctx, cfg, *inputFlag)
	if err != nil {
		logger.Fatal(ctx, err)
	}

	client, err := transcribe.NewOpenAI(cfg.Transcription.APIKey, cfg.Transcription.TranscribeOptions()...)
	if err != nil {
		logger.Fatal(ctx, err)
	}

	ctl := session.New(source, client, session.Config{
		Segmenter:   cfg.SegmenterConfig(),
		Language:    cfg.Transcription.GetLanguage(),
		QueueDepth:  cfg.Session.QueueDepth,
		StopTimeout: cfg.Session.StopTimeoutDuration(),
	})
	if err := ctl.Start(ctx); err != nil {
		logger.Fatal(ctx, err)
	}
	logger.Infof(ctx, "session %s started, speak into the microphone (Ctrl+C to stop)", ctl.ID())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	observability.Go(ctx, func() {
		<-sigCh
		logger.Infof(ctx, "stopping the session")
		if _, err := ctl.Stop(ctx); err != nil {
			logger.Errorf(ctx, "unable to stop the session: %v", err)
		}
	})

	for ev := range ctl.Events() {
		switch ev := ev.(type) {
		case session.EventChunk:
			logger.Debugf(ctx, "chunk %d: %v of audio, %v of speech", ev.Index, ev.Duration, ev.SpeechDuration)
		case session.EventChunkDiscarded:
			logger.Debugf(ctx, "discarded a chunk with too little speech")
		case session.EventTranscript:
			fmt.Print(ev.NewText)
		case session.EventTranscribeError:
			logger.Errorf(ctx, "chunk %d failed: %v", ev.Index, ev.Err)
		}
	}
	fmt.Println()

	text, err := ctl.Stop(ctx)
	if err != nil {
		logger.Fatal(ctx, err)
	}
	stats := ctl.Stats(ctx)
	logger.Infof(ctx, "session finished: %d chunks transcribed, %d dropped, %d discarded",
		stats.ChunkCount, stats.DroppedChunks, stats.DiscardedChunks)

	if *outputFlag != "" {
		if err := os.WriteFile(*outputFlag, []byte(text+"\n"), 0o644); err != nil {
			logger.Fatal(ctx, err)
		}
	}
}

func openSource(ctx context.Context, cfg *config.Config, input string) (capture.Source, error) {
	switch input {
	case "mic":
		return capture.OpenMicrophone(ctx, cfg.Audio.SampleRate, cfg.Audio.FrameSize)
	case "-":
		return capture.NewReaderSource(os.Stdin, cfg.Audio.FrameSize), nil
	}

	data, err := os.ReadFile(input)
	if err != nil {
		return nil, fmt.Errorf("unable to read '%s': %w", input, err)
	}
	samples, sampleRate, err := pcm.DecodeWAV(data)
	if err != nil {
		return nil, fmt.Errorf("unable to decode '%s': %w", input, err)
	}
	if sampleRate != cfg.Audio.SampleRate {
		return nil, fmt.Errorf("'%s' is sampled at %d Hz, but the pipeline expects %d Hz", input, sampleRate, cfg.Audio.SampleRate)
	}

	raw := make([]byte, 0, len(samples)*2)
	for _, s := range samples {
		raw = binary.LittleEndian.AppendUint16(raw, uint16(s))
	}
	return capture.NewReaderSource(bytes.NewReader(raw), cfg.Audio.FrameSize), nil
}
