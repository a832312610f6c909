// Command dtfsutil is a flat CLI over a DTFS image file, in the shape
// w64tool takes over a WicOS64 server: a global flag or two, then a
// verb and its positional arguments dispatched from a switch.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/dtfs/dtfs/backend/file"
	"github.com/dtfs/dtfs/backup"
	"github.com/dtfs/dtfs/device"
	"github.com/dtfs/dtfs/filesystem/dtfs"
	"github.com/dtfs/dtfs/imageio"
	"github.com/dtfs/dtfs/util"
)

func main() {
	var imagePath string
	var sectorSize uint
	flag.StringVar(&imagePath, "image", "", "path to a DTFS image file")
	flag.UintVar(&sectorSize, "sector-size", device.DefaultSectorSize, "sector size in bytes, used only by format and restore")
	flag.Parse()

	args := flag.Args()
	if imagePath == "" || len(args) < 1 {
		usage()
		os.Exit(2)
	}

	cmd := args[0]
	rest := args[1:]

	var err error
	switch cmd {
	case "format":
		err = cmdFormat(imagePath, uint32(sectorSize), rest)
	case "ls":
		err = cmdLs(imagePath, rest)
	case "cat":
		err = cmdCat(imagePath, rest)
	case "rm":
		err = cmdRm(imagePath, rest)
	case "mv":
		err = cmdMv(imagePath, rest)
	case "import":
		err = cmdImport(imagePath, rest)
	case "export":
		err = cmdExport(imagePath, rest)
	case "fsck":
		err = cmdFsck(imagePath, rest)
	case "dump":
		err = cmdDump(imagePath, rest)
	case "backup":
		err = cmdBackup(imagePath, rest)
	case "restore":
		err = cmdRestore(imagePath, uint32(sectorSize), rest)
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", cmd)
		usage()
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "dtfsutil:", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Println("Usage: dtfsutil -image <path> <command> [args]")
	fmt.Println("Commands:")
	fmt.Println("  format <total-sectors>")
	fmt.Println("  ls")
	fmt.Println("  cat <name>")
	fmt.Println("  rm <name>")
	fmt.Println("  mv <old> <new>")
	fmt.Println("  import <host-path> <name>")
	fmt.Println("  export <name> <host-path>")
	fmt.Println("  fsck")
	fmt.Println("  dump <name>")
	fmt.Println("  backup <out-file> [none|lz4|xz]")
	fmt.Println("  restore <in-file> <total-sectors> [none|lz4|xz]")
}

func openDevice(imagePath string, sectorSize uint32, readOnly bool) (device.Device, error) {
	backing, err := file.OpenFromPath(imagePath, readOnly)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", imagePath, err)
	}
	return device.NewFileDevice(backing, sectorSize)
}

func mount(imagePath string) (*dtfs.FileSystem, error) {
	dev, err := openDevice(imagePath, device.DefaultSectorSize, false)
	if err != nil {
		return nil, err
	}
	return dtfs.Mount(dev)
}

func cmdFormat(imagePath string, sectorSize uint32, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("format requires a total sector count")
	}
	total, err := strconv.ParseUint(args[0], 10, 32)
	if err != nil {
		return fmt.Errorf("invalid sector count %q: %w", args[0], err)
	}
	backing, err := file.CreateFromPath(imagePath, int64(total)*int64(sectorSize))
	if err != nil {
		return fmt.Errorf("create %s: %w", imagePath, err)
	}
	dev, err := device.NewFileDevice(backing, sectorSize)
	if err != nil {
		return err
	}
	_, err = dtfs.Format(dev)
	return err
}

func cmdLs(imagePath string, _ []string) error {
	fs, err := mount(imagePath)
	if err != nil {
		return err
	}
	names, err := fs.ListNames()
	if err != nil {
		return err
	}
	for _, name := range names {
		fe, err := fs.Stat(name)
		if err != nil {
			return err
		}
		fmt.Printf("%-32s %10d\n", name, fe.Length(fs.SectorSize()))
	}
	return nil
}

func cmdCat(imagePath string, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("cat requires a name")
	}
	fs, err := mount(imagePath)
	if err != nil {
		return err
	}
	h, err := fs.Open(args[0])
	if err != nil {
		return err
	}
	defer func() { _ = fs.Close(h) }()
	buf := make([]byte, fs.SectorSize())
	for {
		n, err := fs.Read(h, buf)
		if n > 0 {
			os.Stdout.Write(buf[:n])
		}
		if err != nil {
			break
		}
	}
	return nil
}

func cmdRm(imagePath string, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("rm requires a name")
	}
	fs, err := mount(imagePath)
	if err != nil {
		return err
	}
	return fs.Delete(args[0])
}

func cmdMv(imagePath string, args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("mv requires <old> <new>")
	}
	fs, err := mount(imagePath)
	if err != nil {
		return err
	}
	return fs.Rename(args[0], args[1])
}

func cmdImport(imagePath string, args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("import requires <host-path> <name>")
	}
	fs, err := mount(imagePath)
	if err != nil {
		return err
	}
	return imageio.Import(fs, args[0], args[1])
}

func cmdExport(imagePath string, args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("export requires <name> <host-path>")
	}
	fs, err := mount(imagePath)
	if err != nil {
		return err
	}
	return imageio.Export(fs, args[0], args[1])
}

func cmdFsck(imagePath string, _ []string) error {
	fs, err := mount(imagePath)
	if err != nil {
		return err
	}
	report, err := fs.Check()
	if err != nil {
		return err
	}
	fmt.Printf("data sectors: %d, claimed: %d, free list: %d (header says %d)\n",
		report.TotalDataSectors, report.ClaimedSectors, report.FreeListLen, report.HeaderFreeNum)
	for _, p := range report.Problems {
		fmt.Println("PROBLEM:", p)
	}
	if !report.OK() {
		return fmt.Errorf("%d problem(s) found", len(report.Problems))
	}
	fmt.Println("OK")
	return nil
}

func cmdDump(imagePath string, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("dump requires a name")
	}
	fs, err := mount(imagePath)
	if err != nil {
		return err
	}
	h, err := fs.Open(args[0])
	if err != nil {
		return err
	}
	defer func() { _ = fs.Close(h) }()
	content, err := io.ReadAll(readerFor(fs, h))
	if err != nil {
		return err
	}
	fmt.Print(util.DumpByteSlice(content, 16, true, true, false, nil))
	return nil
}

type fsReader struct {
	fs *dtfs.FileSystem
	h  dtfs.Handle
}

func (r fsReader) Read(p []byte) (int, error) { return r.fs.Read(r.h, p) }

func readerFor(fs *dtfs.FileSystem, h dtfs.Handle) io.Reader { return fsReader{fs: fs, h: h} }

func codecByName(name string) (backup.Codec, error) {
	switch name {
	case "", "none":
		return backup.CodecNone, nil
	case "lz4":
		return backup.CodecLZ4, nil
	case "xz":
		return backup.CodecXZ, nil
	default:
		return nil, fmt.Errorf("unknown codec %q (want none, lz4, or xz)", name)
	}
}

func cmdBackup(imagePath string, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("backup requires <out-file>")
	}
	codecName := ""
	if len(args) >= 2 {
		codecName = args[1]
	}
	codec, err := codecByName(codecName)
	if err != nil {
		return err
	}
	dev, err := openDevice(imagePath, device.DefaultSectorSize, true)
	if err != nil {
		return err
	}
	out, err := os.Create(args[0])
	if err != nil {
		return err
	}
	defer func() { _ = out.Close() }()
	sum, err := backup.Dump(dev, out, codec)
	if err != nil {
		return err
	}
	fmt.Printf("backed up, sha256=%x\n", sum)
	return nil
}

func cmdRestore(outImagePath string, sectorSize uint32, args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("restore requires <in-file> <total-sectors>")
	}
	total, err := strconv.ParseUint(args[1], 10, 32)
	if err != nil {
		return fmt.Errorf("invalid sector count %q: %w", args[1], err)
	}
	codecName := ""
	if len(args) >= 3 {
		codecName = args[2]
	}
	codec, err := codecByName(codecName)
	if err != nil {
		return err
	}
	backing, err := file.CreateFromPath(outImagePath, int64(total)*int64(sectorSize))
	if err != nil {
		return err
	}
	dev, err := device.NewFileDevice(backing, sectorSize)
	if err != nil {
		return err
	}
	in, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer func() { _ = in.Close() }()
	return backup.Restore(dev, in, codec)
}
