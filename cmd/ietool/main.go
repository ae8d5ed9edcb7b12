// Command ietool decodes the information elements of 802.11 management
// frames from hex strings, capture files and nl80211 scan results.
package main

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/google/gopacket/pcapgo"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/wlancodec/wifi"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const pname = "ietool"

var (
	log      *zap.Logger
	registry = prometheus.NewRegistry()
	codec    *wifi.Codec
)

func silenceUsage(cmd *cobra.Command, args []string) {
	cmd.SilenceUsage = true
}

// setup builds the logger and codec from the root flags.
func setup(cmd *cobra.Command, args []string) error {
	silenceUsage(cmd, args)

	flags := cmd.Flags()
	levelStr, _ := flags.GetString("log-level")
	dev, _ := flags.GetBool("log-dev")

	level, err := zapcore.ParseLevel(levelStr)
	if err != nil {
		return err
	}

	var config zap.Config
	if dev {
		config = zap.NewDevelopmentConfig()
		config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		config = zap.NewProductionConfig()
		config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}
	config.Level = zap.NewAtomicLevelAt(level)
	if log, err = config.Build(zap.AddStacktrace(zapcore.ErrorLevel)); err != nil {
		return err
	}
	log = log.Named(pname)

	f := wifi.DefaultFeatures()
	if v, _ := flags.GetBool("no-eht"); v {
		f.EHT = false
	}
	if v, _ := flags.GetBool("no-mlo"); v {
		f.MLO = false
	}
	if v, _ := flags.GetBool("no-sr"); v {
		f.SpatialReuse = false
	}

	m, err := wifi.NewMetrics(registry)
	if err != nil {
		return err
	}
	codec = wifi.NewCodec(&wifi.Config{
		Features: &f,
		Logger:   log,
		Metrics:  m,
	})

	return nil
}

// teardown prints the codec counters when requested.
func teardown(cmd *cobra.Command, args []string) error {
	defer func() { _ = log.Sync() }()

	if v, _ := cmd.Flags().GetBool("metrics"); !v {
		return nil
	}

	mfs, err := registry.Gather()
	if err != nil {
		return err
	}
	for _, mf := range mfs {
		for _, m := range mf.GetMetric() {
			var labels []string
			for _, l := range m.GetLabel() {
				labels = append(labels, fmt.Sprintf("%s=%q", l.GetName(), l.GetValue()))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s{%s} %g\n",
				mf.GetName(), strings.Join(labels, ","), m.GetCounter().GetValue())
		}
	}

	return nil
}

// parseFrameType accepts a FrameType name with dashes for spaces, such as
// "probe-response".
func parseFrameType(s string) (wifi.FrameType, error) {
	for t := wifi.FrameBeacon; t <= wifi.FrameAuthentication; t++ {
		if strings.ReplaceAll(t.String(), " ", "-") == s {
			return t, nil
		}
	}

	return 0, fmt.Errorf("unknown frame type %q", s)
}

// kinds returns the element kinds present in fe, in transmission order.
func kinds(fe *wifi.FrameElements, ft wifi.FrameType) []string {
	elems, err := fe.Capabilities.Elements(ft.FromAP())
	if err != nil {
		return []string{"unencodable: " + err.Error()}
	}

	var out []string
	for _, e := range elems {
		out = append(out, e.Key().String())
	}
	if fe.MultiLink != nil {
		out = append(out, fmt.Sprintf("multi_link(%s, %d profiles)",
			fe.MultiLink.Type, len(fe.MultiLink.Profiles)))
	}

	return out
}

// report prints a decoded element set.
func report(w io.Writer, fe *wifi.FrameElements, ft wifi.FrameType, asJSON bool) error {
	if asJSON {
		b, err := json.MarshalIndent(fe, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(w, string(b))
		return nil
	}

	fmt.Fprintf(w, "  ssid: %q\n", fe.SSID)
	fmt.Fprintf(w, "  elements: %s\n", strings.Join(kinds(fe, ft), " "))
	if l := fe.Capabilities.Load; l != nil {
		fmt.Fprintf(w, "  load: %s", l)
	}
	if fe.MultiLink != nil {
		for _, p := range fe.MultiLink.Profiles {
			fmt.Fprintf(w, "  link %d: complete=%t elements=%d\n",
				p.LinkID, p.Complete, len(p.Elements))
		}
	}

	return nil
}

func decodeHex(cmd *cobra.Command, args []string) error {
	ftStr, _ := cmd.Flags().GetString("frame")
	asJSON, _ := cmd.Flags().GetBool("json")

	ft, err := parseFrameType(ftStr)
	if err != nil {
		return err
	}

	b, err := hex.DecodeString(strings.Join(strings.Fields(strings.Join(args, "")), ""))
	if err != nil {
		return err
	}

	fe, err := codec.Decode(b, ft)
	if err != nil {
		log.Warn("decode incomplete", zap.Error(err))
	}
	if fe == nil {
		return errors.New("no elements decoded")
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s:\n", ft)
	return report(cmd.OutOrStdout(), fe, ft, asJSON)
}

func decodePcap(cmd *cobra.Command, args []string) error {
	asJSON, _ := cmd.Flags().GetBool("json")
	limit, _ := cmd.Flags().GetInt("count")

	f, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer f.Close()

	r, err := pcapgo.NewReader(f)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	n := 0
	for limit <= 0 || n < limit {
		data, ci, err := r.ReadPacketData()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}

		frame, err := wifi.DecodeFrame(data, r.LinkType())
		if err != nil {
			log.Debug("skipping packet", zap.Time("ts", ci.Timestamp), zap.Error(err))
			continue
		}
		n++

		fe, err := codec.Decode(frame.Elements, frame.Type)
		if err != nil {
			log.Info("decode incomplete",
				zap.Stringer("frame", frame.Type),
				zap.Stringer("transmitter", frame.Addr2),
				zap.Error(err))
		}
		if fe == nil {
			continue
		}

		fmt.Fprintf(out, "%s %s from %s", ci.Timestamp.UTC().Format(time.RFC3339Nano), frame.Type, frame.Addr2)
		if frame.Frequency != 0 {
			fmt.Fprintf(out, " on %d MHz", frame.Frequency)
		}
		fmt.Fprintln(out, ":")
		if err := report(out, fe, frame.Type, asJSON); err != nil {
			return err
		}
	}

	log.Debug("capture done", zap.Int("frames", n))
	return nil
}

func scan(cmd *cobra.Command, args []string) error {
	trigger, _ := cmd.Flags().GetBool("trigger")
	timeout, _ := cmd.Flags().GetDuration("timeout")
	asJSON, _ := cmd.Flags().GetBool("json")

	c, err := wifi.NewWithCodec(codec)
	if err != nil {
		return err
	}
	defer c.Close()

	ifis, err := c.Interfaces()
	if err != nil {
		return err
	}

	var ifi *wifi.Interface
	for _, i := range ifis {
		if i.Name == args[0] {
			ifi = i
			break
		}
	}
	if ifi == nil {
		return fmt.Errorf("no WiFi interface named %q", args[0])
	}

	if trigger {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		log.Info("scanning", zap.String("interface", ifi.Name))
		if err := c.Scan(ctx, ifi); err != nil {
			return err
		}
	}

	bsss, err := c.AccessPoints(ifi)
	if err != nil {
		return err
	}
	sort.Slice(bsss, func(i, j int) bool { return bsss[i].Frequency < bsss[j].Frequency })

	out := cmd.OutOrStdout()
	for _, b := range bsss {
		fmt.Fprintf(out, "%s %d MHz (%s channel %d) %s\n",
			b.BSSID, b.Frequency, b.Link().Band, b.Link().Channel, b.Status)
		if b.Capabilities == nil {
			continue
		}
		fe := &wifi.FrameElements{SSID: b.SSID, Capabilities: *b.Capabilities, MultiLink: b.MultiLink}
		if err := report(out, fe, b.FrameType, asJSON); err != nil {
			return err
		}
	}

	return nil
}

func main() {
	rootCmd := cobra.Command{
		Use:                pname,
		Short:              "Decode 802.11 information elements",
		PersistentPreRunE:  setup,
		PersistentPostRunE: teardown,
	}
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().Bool("log-dev", false, "human readable log output")
	rootCmd.PersistentFlags().Bool("no-eht", false, "do not decode EHT elements")
	rootCmd.PersistentFlags().Bool("no-mlo", false, "do not decode Multi-Link elements")
	rootCmd.PersistentFlags().Bool("no-sr", false, "do not decode Spatial Reuse elements")
	rootCmd.PersistentFlags().Bool("metrics", false, "print decode counters on exit")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "print decoded elements as JSON")

	decodeCmd := &cobra.Command{
		Use:   "decode [flags] <hex>...",
		Short: "Decode the elements of a frame body given in hex",
		Args:  cobra.MinimumNArgs(1),
		RunE:  decodeHex,
	}
	decodeCmd.Flags().StringP("frame", "f", "beacon", "frame type carrying the elements")
	rootCmd.AddCommand(decodeCmd)

	pcapCmd := &cobra.Command{
		Use:   "pcap [flags] <file>",
		Short: "Decode the management frames of an 802.11 or radiotap capture",
		Args:  cobra.ExactArgs(1),
		RunE:  decodePcap,
	}
	pcapCmd.Flags().IntP("count", "c", 0, "stop after this many management frames")
	rootCmd.AddCommand(pcapCmd)

	scanCmd := &cobra.Command{
		Use:   "scan [flags] <interface>",
		Short: "Decode the elements of nl80211 scan results",
		Args:  cobra.ExactArgs(1),
		RunE:  scan,
	}
	scanCmd.Flags().BoolP("trigger", "t", false, "trigger a new scan first")
	scanCmd.Flags().Duration("timeout", 10*time.Second, "scan timeout")
	rootCmd.AddCommand(scanCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
