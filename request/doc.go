// 版权所有 2024 AgentFlow Authors. 版权所有。
// 此源代码的使用由 MIT 许可规范,该许可可以是
// 在LICENSE文件中找到。

/*
包 request 提供 HTTP/1.x 请求头的增量解析，只消费请求行与头部，
请求体保持在连接中由调用方按需读取。

# 概述

解析器基于按行迭代的输入（iter.Seq2[string, error]）工作，
第一行为请求行，随后逐行解析头部直至空行。遇到格式错误时立即
停止，已解析的头部保留在返回的部分请求中。

# 核心类型

  - Request：解析结果，包含 Method、Target、Version 与 Header。
  - Header：小写键的头部映射，后出现的同名头部覆盖先前的值。
  - Version：协议版本，仅接受 HTTP/1.1、HTTP/2、HTTP/3 三个字面量。
  - HeaderError：头部行格式错误，携带原始行内容。

# 主要能力

  - 请求行校验：METHOD SP TARGET SP VERSION，方法名仅允许大写字母。
  - 头部校验：名称为 [A-Za-z0-9-]+，冒号后至多跳过一个空格，
    其余内容原样保留。
  - 错误分类：ErrNoTargetLine、ErrRequestTargetBadlyFormated、
    ErrRequestHeaderBadlyFormated，均可通过 errors.Is 判断。
*/
package request
