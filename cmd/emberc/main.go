// emberc - Ember JIT backend driver
// Compiles a built-in sample method to AMD64 machine code and dumps the
// disassembly and metadata tables. Useful for eyeballing emitted code
// and for exercising the backend outside the VM.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/embervm/ember/amd64"
	"github.com/embervm/ember/lir"
	"github.com/embervm/ember/log"
	"github.com/embervm/ember/telemetry"
	"github.com/embervm/ember/xir"
)

var (
	Version   = "dev"
	Commit    = "none"
	BuildTime = "unknown"
)

func main() {
	var rootCmd = &cobra.Command{
		Use:   "emberc",
		Short: "Ember AMD64 backend driver",
	}
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	var (
		logLevel          string
		debug             string
		telemetryEndpoint string

		alignCalls    bool
		zapStack      bool
		inlineObjects bool
		traceAsm      bool
		breakGuards   int
	)

	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (trace, debug, info, warn, error, crit)")
	rootCmd.PersistentFlags().StringVar(&debug, "debug", "", "Debug modules to enable (comma separated, or 'all')")
	rootCmd.PersistentFlags().StringVar(&telemetryEndpoint, "telemetry", "", "OTLP trace endpoint (e.g. localhost:4318)")

	var compileCmd = &cobra.Command{
		Use:   "compile",
		Short: "Compile the sample method and dump code and metadata",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := log.InitLogger(logLevel); err != nil {
				return err
			}
			log.EnableModules(debug)

			ctx := context.Background()
			shutdown, err := telemetry.Setup(ctx, telemetry.Config{Endpoint: telemetryEndpoint, Insecure: true})
			if err != nil {
				return fmt.Errorf("telemetry setup: %w", err)
			}
			defer shutdown(ctx)

			cfg := amd64.DefaultConfig()
			cfg.AlignCallsForPatching = alignCalls
			cfg.ZapStackOnMethodEntry = zapStack
			cfg.InlineObjects = inlineObjects
			cfg.TraceAssembler = traceAsm
			cfg.MethodEndBreakpointGuards = breakGuards

			method := sampleMethod()
			tm, err := amd64.Compile(ctx, method, cfg)
			if err != nil {
				return err
			}

			fmt.Printf("method %s: %d bytes, frame %d bytes\n\n", tm.Name, len(tm.Code), tm.FrameSize)
			fmt.Print(amd64.Disassemble(tm.Code))
			dumpMetadata(tm)
			return nil
		},
	}
	compileCmd.Flags().BoolVar(&alignCalls, "align-calls", false, "Align direct calls for atomic patching")
	compileCmd.Flags().BoolVar(&zapStack, "zap-stack", false, "Fill fresh frames with a poison pattern")
	compileCmd.Flags().BoolVar(&inlineObjects, "inline-objects", false, "Embed object references as inline immediates")
	compileCmd.Flags().BoolVar(&traceAsm, "trace-asm", false, "Log each instruction as it is emitted")
	compileCmd.Flags().IntVar(&breakGuards, "breakpoint-guards", 0, "int3 guards appended after the method")

	var disasmCmd = &cobra.Command{
		Use:   "disasm <file>",
		Short: "Disassemble a raw AMD64 code dump",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			code, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			fmt.Print(amd64.Disassemble(code))
			return nil
		},
	}

	var templatesCmd = &cobra.Command{
		Use:   "templates",
		Short: "Show the builtin snippet templates",
		Run: func(cmd *cobra.Command, args []string) {
			for _, t := range xir.Builtins() {
				fmt.Print(t.Tree().String())
			}
		},
	}

	var versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("emberc %s (commit %s, built %s)\n", Version, Commit, BuildTime)
		},
	}

	rootCmd.AddCommand(compileCmd, disasmCmd, templatesCmd, versionCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// sampleMethod is a hand-allocated method exercising a representative
// instruction mix: a safepoint poll, arithmetic, a table switch and a
// merge point.
func sampleMethod() *lir.Method {
	frame := &lir.FrameMap{
		OutgoingSize:   2 * lir.SlotSize,
		SpillSlotCount: 2,
		CalleeSaved:    []lir.Register{amd64.RBX},
	}

	b1 := lir.NewBlock(1)
	b2 := lir.NewBlock(2)
	b3 := lir.NewBlock(3)
	bDefault := lir.NewBlock(4)
	bEnd := lir.NewBlock(5)

	rax := lir.Reg(lir.Int, amd64.RAX)
	rbx := lir.Reg(lir.Int, amd64.RBX)
	latch := lir.Reg(lir.Word, amd64.SafepointLatchRegister)
	scratch := lir.Reg(lir.Word, amd64.R10)

	poll := xir.SafepointTemplate().MustBind(
		[]lir.Operand{latch},
		[]lir.Operand{scratch},
	)
	info := &lir.DebugInfo{Method: "Sample.dispatch", BCI: 0}

	code := []*lir.Instr{
		{Code: lir.OpXir, Xir: poll, Info: info},
		{Code: lir.OpMove, Kind: lir.Int, X: lir.ConstInt(2), Result: rax},
		{Code: lir.OpAdd, Kind: lir.Int, X: rax, Y: lir.ConstInt(1), Result: rax},
		{Code: lir.OpTableSwitch, Kind: lir.Int, X: rax,
			Switch: &lir.SwitchTargets{LowKey: 1, Targets: []*lir.Block{b1, b2, b3}, Default: bDefault}},

		{Code: lir.OpMove, Kind: lir.Int, X: lir.ConstInt(10), Result: rbx, BlockStart: b1},
		{Code: lir.OpBranch, Branch: &lir.BranchTarget{Target: bEnd}},
		{Code: lir.OpMove, Kind: lir.Int, X: lir.ConstInt(20), Result: rbx, BlockStart: b2},
		{Code: lir.OpBranch, Branch: &lir.BranchTarget{Target: bEnd}},
		{Code: lir.OpMove, Kind: lir.Int, X: lir.ConstInt(30), Result: rbx, BlockStart: b3},
		{Code: lir.OpBranch, Branch: &lir.BranchTarget{Target: bEnd}},
		{Code: lir.OpMove, Kind: lir.Int, X: lir.ConstInt(-1), Result: rbx, BlockStart: bDefault},

		{Code: lir.OpMove, Kind: lir.Int, X: rbx, Result: rax, BlockStart: bEnd},
		{Code: lir.OpReturn},
	}

	return &lir.Method{Name: "Sample.dispatch", Code: code, Frame: frame}
}

func dumpMetadata(tm *amd64.TargetMethod) {
	if len(tm.Calls) > 0 {
		fmt.Println("\ncall sites:")
		for _, c := range tm.Calls {
			fmt.Printf("  [%#04x,%#04x) -> %s\n", c.Before, c.After, c.Target)
		}
	}
	if len(tm.ImplicitExceptions) > 0 {
		fmt.Println("\nimplicit exceptions:")
		for _, ie := range tm.ImplicitExceptions {
			fmt.Printf("  %#04x %s\n", ie.Pos, ie.Info)
		}
	}
	if len(tm.Safepoints) > 0 {
		fmt.Println("\nsafepoints:")
		for _, sp := range tm.Safepoints {
			fmt.Printf("  %#04x %s\n", sp.Pos, sp.Info)
		}
	}
	if len(tm.DataPatches) > 0 {
		fmt.Println("\ndata patches:")
		for _, dp := range tm.DataPatches {
			fmt.Printf("  %#04x %s\n", dp.Pos, dp.Kind)
		}
	}
	if len(tm.JumpTables) > 0 {
		fmt.Println("\njump tables:")
		for _, jt := range tm.JumpTables {
			fmt.Printf("  %#04x keys [%d,%d] entry %d bytes\n", jt.Pos, jt.LowKey, jt.HighKey, jt.EntrySize)
		}
	}
	if len(tm.Marks) > 0 {
		fmt.Println("\nmarks:")
		for _, m := range tm.Marks {
			fmt.Printf("  %#04x %s\n", m.Pos, m.Name)
		}
	}
}
