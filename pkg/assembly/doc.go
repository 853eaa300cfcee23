// Package assembly 实现上下文装配与缓存引擎。
//
// 引擎围绕一条严格有序的流水线组织：
// 缓存查找 → 模板解析 → 关系收集 → 访问过滤 → Token 预算 → 质量评估 → 缓存写入。
// 只有收集阶段内部的关系拉取是并发的，结果在进入过滤阶段前
// 按确定性规则重新排序，输出与拉取完成顺序无关。
//
// 缓存是纯派生状态：所有正确性属性在缓存完全禁用时同样成立。
package assembly
