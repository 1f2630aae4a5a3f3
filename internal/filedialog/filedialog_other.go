//go:build !windows

package filedialog

const Supported = false

func OpenFile(req Request) (string, error) {
	return "", ErrUnsupported
}
