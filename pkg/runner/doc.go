/*
Package runner implements the execution loop and I/O orchestration for the simulator.

It acts as the bridge between a machine and the outside world. The runner seeds
the tape, answers step requests until the machine halts or the step budget runs
out, and reports every configuration through a pluggable handler.

# Key Components

  - Runner: The loop. It owns the step ceiling; the simulator itself never bounds a run.
  - IOHandler: Decouples how a run is presented (text trace, JSON lines, Markdown).
  - TextHandler: The classic trace, one "State: ..., Tape: ..., Head: ..." line per step request.

# Usage

	r := runner.NewRunner(
		runner.WithMaxSteps(10000),
		runner.WithInputHandler(runner.NewTextHandler(os.Stdin, os.Stdout)),
	)

	verdict, err := r.Run(ctx, sim, "ab")
	if err != nil {
		log.Fatal(err)
	}
*/
package runner
