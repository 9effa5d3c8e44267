package report

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/bvgastel/crashy/symbolic"
	"github.com/bvgastel/crashy/wire"
)

// printer renders the live terminal view of a record while it streams in.
type printer struct {
	out io.Writer
	tty bool
}

func newPrinter() *printer {
	return &printer{out: os.Stderr, tty: stderrIsTerminal()}
}

func (p *printer) banner(now time.Time) {
	stamp := now.Format(" [2006-01-02 15:04:05 -0700]")
	if p.tty {
		fmt.Fprintf(p.out, colorRed+"\n\n"+bar+reset+" CRASH "+colorRed+bar+colorDim+"%s"+reset+"\n", stamp)
	} else {
		fmt.Fprintf(p.out, "\n\n"+bar+" CRASH "+bar+"%s\n", stamp)
	}
}

func (p *printer) signal(number uint32, addr uint64) {
	if p.tty {
		fmt.Fprintf(p.out, "%s "+colorDim+"(%d) on address "+reset+"0x%x"+colorDim+"."+reset+"\n",
			SignalDescription(number), number, addr)
	} else {
		fmt.Fprintf(p.out, "%s (%d) on address 0x%x.\n", SignalDescription(number), number, addr)
	}
}

func (p *printer) exception(typeName, description string) {
	if p.tty {
		fmt.Fprintf(p.out, "%s "+colorDim+"exception: "+reset+"%s"+colorDim+"."+reset+"\n", typeName, description)
	} else {
		fmt.Fprintf(p.out, "%s exception: %s.\n", typeName, description)
	}
}

func (p *printer) assert(a *AssertCause) {
	if p.tty {
		fmt.Fprintf(p.out, colorDim+"Assertion violation in "+colorFull+"%s"+colorDim+" [%s:%d]: "+reset+"%s.\n"+
			colorDim+"This is due to: "+reset+"%s"+colorDim+"."+reset+"\n",
			a.Function, a.File, a.Line, a.Condition, a.Explanation)
	} else {
		fmt.Fprintf(p.out, "Assertion violation in %s [%s:%d]: %s.\nThis is due to: %s\n",
			a.Function, a.File, a.Line, a.Condition, a.Explanation)
	}
}

func (p *printer) frame(f symbolic.Frame, offset uint32, pc uint64) {
	name := f.Function
	if name == "" {
		name = "(unknown)"
	}
	if f.Source != "" {
		dir := symbolic.DirName(f.Source)
		base := symbolic.BaseName(f.Source)
		if p.tty {
			fmt.Fprintf(p.out, colorYellow+bulletSymbol+reset+colorFull+"%s"+colorDim+" in "+reset+"%s+0x%x"+colorDim+"\n"+
				alignIndent+"[%s"+underline+"%s"+underlineOff+":%d]"+reset+"\n",
				name, symbolic.BaseName(f.Library), offset, dir, base, f.Line)
		} else {
			fmt.Fprintf(p.out, bulletSymbol+"%s in %s+0x%x [%s%s:%d]\n",
				name, symbolic.BaseName(f.Library), offset, dir, base, f.Line)
		}
		return
	}
	if p.tty {
		fmt.Fprintf(p.out, colorYellow+bulletSymbol+reset+colorFull+"%s"+colorDim+" in "+reset+"%s"+colorDim+"+0x%x (0x%x)"+reset+"\n",
			name, symbolic.BaseName(f.Library), offset, pc)
	} else {
		fmt.Fprintf(p.out, bulletSymbol+"%s in %s+0x%x (0x%x)\n", name, symbolic.BaseName(f.Library), offset, pc)
	}
}

func (p *printer) context(context string, cfg Config) {
	if p.tty {
		fmt.Fprintf(p.out, colorGreen+contextSymbol+reset+colorFull+"%s"+reset+"\n"+
			colorRed+commandSymbol+reset+colorFull+" %s\n"+alignIndent+colorDim+"in"+reset+" %s\n"+
			alignIndent+colorDim+"of"+reset+" %s/%s [%s]\n",
			context, cfg.Command, cfg.Path, cfg.Environment, cfg.Dist, cfg.Release)
	} else {
		fmt.Fprintf(p.out, contextSymbol+"%s\n"+commandSymbol+" %s\n    in %s\n    of %s/%s [%s]\n",
			context, cfg.Command, cfg.Path, cfg.Environment, cfg.Dist, cfg.Release)
	}
}

func (p *printer) breadcrumb(c Crumb) {
	stamp := time.Unix(int64(c.Time), 0).Format("2006-01-02 15:04:05")
	pad := levelSpacing[min(len(levelSpacing), len(c.Level)):]
	if p.tty {
		fmt.Fprintf(p.out, colorBlue+logSymbol+reset+"%s%s [%s] "+reset+"%s\n"+reset, stamp, pad, c.Level, c.Message)
	} else {
		fmt.Fprintf(p.out, logSymbol+"%s%s [%s] %s\n", stamp, pad, c.Level, c.Message)
	}
}

// parse consumes one TLV record, printing the live terminal view while
// reading and symbolicating frames as they arrive. It returns the record
// and true, or nil and false when the stream violates framing (the partial
// record is discarded silently, per the protocol).
func parse(in io.Reader, cfg Config, p *printer, now time.Time) (*Record, bool) {
	r := wire.NewReader(in)
	if r.Tag(0) != wire.Start || !r.Good() {
		return nil, false
	}
	p.banner(now)

	rec := &Record{}
	for {
		tag := r.Tag(0)
		if !r.Good() {
			return nil, false
		}
		switch tag {
		case wire.Finish:
			return rec, true

		case wire.Signal:
			number := r.Uint32(0)
			addr := r.Uint64(0)
			if !r.Good() {
				return nil, false
			}
			rec.Signal = &SignalCause{Number: number, Address: addr}
			p.signal(number, addr)

		case wire.UncaughtException:
			description := r.String("")
			typeName := r.String("")
			if !r.Good() {
				return nil, false
			}
			rec.Exception = &ExceptionCause{TypeName: typeName, Description: description}
			display := "unknown"
			if typeName != "" {
				display = symbolic.Demangle(typeName)
			}
			p.exception(display, description)

		case wire.Assert:
			a := &AssertCause{}
			a.Function = r.String("")
			a.File = r.String("")
			a.Line = r.Uint32(0)
			a.Condition = r.String("")
			a.Explanation = r.String("")
			if !r.Good() {
				return nil, false
			}
			rec.Assert = a
			p.assert(a)

		case wire.Library:
			symbol := r.String("")
			library := r.String("")
			offset := r.Uint32(0)
			pc := r.Uint64(0)
			if !r.Good() {
				return nil, false
			}
			frame := symbolic.Resolve(symbol, library, offset, pc, cfg.CurrentExecutable)
			rec.Frames = append(rec.Frames, frame)
			p.frame(frame, offset, pc)

		case wire.PC:
			pc := r.Uint64(0)
			if !r.Good() {
				return nil, false
			}
			frame := symbolic.ResolvePC(pc, cfg.CurrentExecutable)
			frame.Library = cfg.CurrentExecutable
			rec.Frames = append(rec.Frames, frame)
			p.frame(frame, 0, pc)

		case wire.Context:
			rec.Context = r.String("")
			if !r.Good() {
				return nil, false
			}
			p.context(rec.Context, cfg)

		case wire.Breadcrumb:
			c := Crumb{}
			c.Level = r.String("")
			c.Time = r.Uint64(0)
			c.Message = string(r.Bytes(nil))
			if !r.Good() {
				return nil, false
			}
			rec.Breadcrumbs = append(rec.Breadcrumbs, c)
			p.breadcrumb(c)

		default:
			// unrecognized tag, the stream is lost
			return nil, false
		}
	}
}
