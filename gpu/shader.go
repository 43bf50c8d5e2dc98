package gpu

import "os"

// ShaderLoader reads raw WGSL source text off disk. Per §6, the runtime
// scans the current working directory for a shader/ subtree; loading the
// bytes is deliberately-out-of-scope glue (§1's "shader source loading"),
// so this is a thin interface with one default, file-backed
// implementation. Preprocessing (the WORKGROUP_X/Y/Z token substitution)
// is a core concern and lives in package kernel, applied to whatever a
// ShaderLoader returns.
type ShaderLoader interface {
	Load(path string) (string, error)
}

// FileShaderLoader reads shader text from the filesystem relative to a
// root directory (ordinarily the process's working directory, per §6).
type FileShaderLoader struct {
	Root string
}

func (f FileShaderLoader) Load(path string) (string, error) {
	full := path
	if f.Root != "" {
		full = f.Root + string(os.PathSeparator) + path
	}
	b, err := os.ReadFile(full)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
