package tools

import "github.com/halligan-ai/halligan/internal/haligerr"

func stringArg(args map[string]any, name string) (string, error) {
	v, ok := args[name]
	if !ok {
		return "", haligerr.NewToolError("missing argument: "+name, nil)
	}
	s, ok := v.(string)
	if !ok {
		return "", haligerr.NewToolError("argument "+name+" must be a string", nil)
	}
	return s, nil
}
