package otel

import "go.opentelemetry.io/otel/attribute"

func scenarioIDAttr(id string) attribute.KeyValue {
	return attribute.String("parcheck.scenario_id", id)
}

func scenarioTasksAttr(tasks []string) attribute.KeyValue {
	return attribute.StringSlice("parcheck.tasks", tasks)
}

func strategyAttr(strategy string) attribute.KeyValue {
	return attribute.String("parcheck.strategy", strategy)
}

func iterationAttr(iteration int) attribute.KeyValue {
	return attribute.Int("parcheck.iteration", iteration)
}

func scheduleAttr(schedule string) attribute.KeyValue {
	return attribute.String("parcheck.schedule", schedule)
}

func stepAttr(step int) attribute.KeyValue {
	return attribute.Int("parcheck.step", step)
}

func taskIDAttr(id int) attribute.KeyValue {
	return attribute.Int("parcheck.task_id", id)
}

func taskNameAttr(name string) attribute.KeyValue {
	return attribute.String("parcheck.task", name)
}

func operationAttr(op string) attribute.KeyValue {
	return attribute.String("parcheck.operation", op)
}
