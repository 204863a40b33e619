package environment

import "context"

type ctxKey int

const (
	envKey ctxKey = iota
	versionKey
	buildTimeKey
)

// CtxWithEnv returns a copy of ctx carrying env.
func CtxWithEnv(ctx context.Context, env Env) context.Context {
	return context.WithValue(ctx, envKey, env)
}

// EnvFromCtx returns Env stored by CtxWithEnv, Local otherwise.
func EnvFromCtx(ctx context.Context) Env {
	if env, ok := ctx.Value(envKey).(Env); ok {
		return env
	}
	return Local
}

// CtxWithVersion returns a copy of ctx carrying the build version.
func CtxWithVersion(ctx context.Context, version string) context.Context {
	return context.WithValue(ctx, versionKey, version)
}

// VersionFromCtx returns version stored by CtxWithVersion.
func VersionFromCtx(ctx context.Context) string {
	v, _ := ctx.Value(versionKey).(string)
	return v
}

// CtxWithBuildTime returns a copy of ctx carrying the build time.
func CtxWithBuildTime(ctx context.Context, buildTime string) context.Context {
	return context.WithValue(ctx, buildTimeKey, buildTime)
}

// BuildTimeFromCtx returns build time stored by CtxWithBuildTime.
func BuildTimeFromCtx(ctx context.Context) string {
	v, _ := ctx.Value(buildTimeKey).(string)
	return v
}
