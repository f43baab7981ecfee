package op

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

var (
	ErrOperatorExists   = errors.New("operator already registered")
	ErrOperatorNotFound = errors.New("operator not found")
)

var operatorRegistry = struct {
	mu     sync.RWMutex
	byCode map[Code]Info
	byName map[string]Code
}{
	byCode: make(map[Code]Info),
	byName: make(map[string]Code),
}

func init() {
	initializeBuiltInOperators()
}

// Register adds one operator to the process-wide registry. Terminal opcodes
// carry no kernels; operator opcodes must carry both.
func Register(info Info) error {
	if info.Name == "" {
		return errors.New("operator name is required")
	}
	if info.Arity < 0 || info.Arity > 2 {
		return fmt.Errorf("operator arity out of range: %d", info.Arity)
	}
	if info.Arity > 0 && (info.Eval == nil || info.Deriv == nil) {
		return fmt.Errorf("operator %q requires eval and derivative kernels", info.Name)
	}

	operatorRegistry.mu.Lock()
	defer operatorRegistry.mu.Unlock()

	if _, exists := operatorRegistry.byCode[info.Code]; exists {
		return fmt.Errorf("%w: code %d", ErrOperatorExists, int(info.Code))
	}
	if _, exists := operatorRegistry.byName[info.Name]; exists {
		return fmt.Errorf("%w: %s", ErrOperatorExists, info.Name)
	}
	operatorRegistry.byCode[info.Code] = info
	operatorRegistry.byName[info.Name] = info.Code
	return nil
}

func MustRegister(info Info) {
	if err := Register(info); err != nil {
		panic(fmt.Sprintf("op: register %q: %v", info.Name, err))
	}
}

func Lookup(code Code) (Info, error) {
	operatorRegistry.mu.RLock()
	defer operatorRegistry.mu.RUnlock()

	info, ok := operatorRegistry.byCode[code]
	if !ok {
		return Info{}, fmt.Errorf("%w: code %d", ErrOperatorNotFound, int(code))
	}
	return info, nil
}

// FromName resolves an operator name or alias to its opcode.
func FromName(name string) (Code, error) {
	normalized := Normalize(name)

	operatorRegistry.mu.RLock()
	defer operatorRegistry.mu.RUnlock()

	code, ok := operatorRegistry.byName[normalized]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrOperatorNotFound, name)
	}
	return code, nil
}

// List returns the registered operator names in sorted order.
func List() []string {
	operatorRegistry.mu.RLock()
	defer operatorRegistry.mu.RUnlock()

	names := make([]string, 0, len(operatorRegistry.byName))
	for name := range operatorRegistry.byName {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Operators returns the non-terminal opcodes in ascending code order.
func Operators() []Code {
	operatorRegistry.mu.RLock()
	defer operatorRegistry.mu.RUnlock()

	codes := make([]Code, 0, len(operatorRegistry.byCode))
	for code := range operatorRegistry.byCode {
		if code.IsTerminal() {
			continue
		}
		codes = append(codes, code)
	}
	sort.Slice(codes, func(i, j int) bool { return codes[i] < codes[j] })
	return codes
}

func resetOperatorRegistryForTests() {
	operatorRegistry.mu.Lock()
	operatorRegistry.byCode = make(map[Code]Info)
	operatorRegistry.byName = make(map[string]Code)
	operatorRegistry.mu.Unlock()
	initializeBuiltInOperators()
}
