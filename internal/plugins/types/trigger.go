package types

// Trigger identifies a fixed extension point.
// Trigger 标识一个固定的扩展点。
type Trigger string

const (
	OnManual          Trigger = "on::manual"
	OnSubscribe       Trigger = "on::subscribe"
	OnGenerate        Trigger = "on::generate"
	OnStartup         Trigger = "on::startup"
	OnShutdown        Trigger = "on::shutdown"
	OnReady           Trigger = "on::ready"
	OnCoreStarted     Trigger = "on::core::started"
	OnCoreStopped     Trigger = "on::core::stopped"
	OnBeforeCoreStart Trigger = "on::before::core::start"
	OnBeforeCoreStop  Trigger = "on::before::core::stop"
	OnTrayUpdate      Trigger = "on::tray::update"
)

// AllTriggers lists every trigger in dispatch-table order.
// AllTriggers 按分发表顺序列出所有触发器。
var AllTriggers = []Trigger{
	OnManual,
	OnTrayUpdate,
	OnSubscribe,
	OnGenerate,
	OnStartup,
	OnShutdown,
	OnReady,
	OnCoreStarted,
	OnCoreStopped,
	OnBeforeCoreStart,
	OnBeforeCoreStop,
}

// Class selects the failure policy applied during a broadcast.
// Class 决定广播过程中采用的失败策略。
type Class int

const (
	// ClassPipeline chains outputs and aborts on the first failure.
	// ClassPipeline 串联输出，首次失败即中止。
	ClassPipeline Class = iota
	// ClassLifecycle logs a failure and moves on to the next observer.
	// ClassLifecycle 记录失败并继续下一个观察者。
	ClassLifecycle
	// ClassInterrupting takes no arguments but aborts on the first failure.
	// ClassInterrupting 无参数，但首次失败即中止。
	ClassInterrupting
)

var triggerEvents = map[Trigger]string{
	OnManual:          "OnManual",
	OnSubscribe:       "OnSubscribe",
	OnGenerate:        "OnGenerate",
	OnStartup:         "OnStartup",
	OnShutdown:        "OnShutdown",
	OnReady:           "OnReady",
	OnCoreStarted:     "OnCoreStarted",
	OnCoreStopped:     "OnCoreStopped",
	OnBeforeCoreStart: "OnBeforeCoreStart",
	OnBeforeCoreStop:  "OnBeforeCoreStop",
	OnTrayUpdate:      "OnTrayUpdate",
}

// Valid reports whether t belongs to the fixed enumeration.
// Valid 报告 t 是否属于固定枚举。
func (t Trigger) Valid() bool {
	_, ok := triggerEvents[t]
	return ok
}

// Event returns the hook function name a plugin defines for t.
// Event 返回插件为 t 定义的钩子函数名。
func (t Trigger) Event() string {
	return triggerEvents[t]
}

func (t Trigger) Class() Class {
	switch t {
	case OnSubscribe, OnGenerate, OnBeforeCoreStart, OnTrayUpdate:
		return ClassPipeline
	case OnShutdown, OnBeforeCoreStop:
		return ClassInterrupting
	default:
		return ClassLifecycle
	}
}

// ParseTrigger accepts either the trigger id or its hook function name.
// ParseTrigger 接受触发器 id 或其钩子函数名。
func ParseTrigger(s string) (Trigger, bool) {
	if t := Trigger(s); t.Valid() {
		return t, true
	}
	for t, ev := range triggerEvents {
		if ev == s {
			return t, true
		}
	}
	return "", false
}
